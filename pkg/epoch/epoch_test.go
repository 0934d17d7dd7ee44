package epoch

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestMillisecondsToDate(t *testing.T) {
	cases := []struct {
		name string
		ms   float64
		want time.Time
	}{
		{"epoch origin", 0, Epoch},
		{"demo value", 1234567890, time.Date(1970, 1, 15, 6, 56, 7, 890_000_000, time.UTC)},
		{"negative one day", -86400000, time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"negative with remainder", -1, time.Date(1969, 12, 31, 23, 59, 59, 999_000_000, time.UTC)},
		{"fractional millisecond", 1.5, time.Date(1970, 1, 1, 0, 0, 0, 1_500_000, time.UTC)},
		{"leap day", 951782400000, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year rollover", 946684799999, time.Date(1999, 12, 31, 23, 59, 59, 999_000_000, time.UTC)},
		{"first representable", -62135596800000, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"last representable millisecond", 253402300799999, time.Date(9999, 12, 31, 23, 59, 59, 999_000_000, time.UTC)},
		{"largest float below year 10000", math.Nextafter(253402300800000, 0), time.Date(9999, 12, 31, 23, 59, 59, 999_968_750, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MillisecondsToDate(tc.ms)
			if err != nil {
				t.Fatalf("MillisecondsToDate(%v) unexpected error: %v", tc.ms, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("MillisecondsToDate(%v) = %v; want %v", tc.ms, got, tc.want)
			}
		})
	}
}

func TestMillisecondsToDate_IntegerTypes(t *testing.T) {
	want := time.Date(1970, 1, 15, 6, 56, 7, 890_000_000, time.UTC)

	for name, conv := range map[string]func() (time.Time, error){
		"int":     func() (time.Time, error) { return MillisecondsToDate(1234567890) },
		"int64":   func() (time.Time, error) { return MillisecondsToDate(int64(1234567890)) },
		"uint32":  func() (time.Time, error) { return MillisecondsToDate(uint32(1234567890)) },
		"float32": func() (time.Time, error) { return MillisecondsToDate(float32(1234567890)) },
	} {
		t.Run(name, func(t *testing.T) {
			got, err := conv()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// float32 cannot hold every digit of the demo value
			if name == "float32" {
				if d := got.Sub(want); d < -time.Second || d > time.Second {
					t.Fatalf("got %v; want about %v", got, want)
				}
				return
			}
			if !got.Equal(want) {
				t.Fatalf("got %v; want %v", got, want)
			}
		})
	}
}

func TestMillisecondsToDate_OutOfRange(t *testing.T) {
	cases := []struct {
		name string
		ms   float64
	}{
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
		{"year 10000", 253402300800000},
		{"before year 1", -62135596800001},
		{"huge", 1e300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MillisecondsToDate(tc.ms)
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("MillisecondsToDate(%v) error = %v; want *RangeError", tc.ms, err)
			}
		})
	}
}

func TestMillisecondsToDate_Additive(t *testing.T) {
	pairs := [][2]int64{
		{0, 1},
		{1234567890, 86400000},
		{-86400000, 86400000},
		{951782400000, 31536000000},
	}

	for _, p := range pairs {
		sum, err := MillisecondsToDate(p[0] + p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		base, err := MillisecondsToDate(p[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := base.Add(time.Duration(p[1]) * time.Millisecond); !sum.Equal(want) {
			t.Errorf("MillisecondsToDate(%d+%d) = %v; want %v", p[0], p[1], sum, want)
		}
	}
}

func TestDateToMilliseconds_RoundTrip(t *testing.T) {
	for _, ms := range []float64{0, 1234567890, -86400000, 1.5, 951782400000, -62135596800000, 253402300799999} {
		date, err := MillisecondsToDate(ms)
		if err != nil {
			t.Fatalf("MillisecondsToDate(%v) unexpected error: %v", ms, err)
		}
		back := DateToMilliseconds(date)
		if back != ms {
			t.Errorf("DateToMilliseconds(%v) = %v; want %v", date, back, ms)
		}
		again, err := MillisecondsToDate(back)
		if err != nil {
			t.Fatalf("MillisecondsToDate(%v) unexpected error: %v", back, err)
		}
		if !again.Equal(date) {
			t.Errorf("round trip of %v gave %v", date, again)
		}
	}
}

func TestDateToMilliseconds_IgnoresZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	got := DateToMilliseconds(time.Date(1970, 1, 1, 0, 0, 1, 0, zone))
	if got != 1000 {
		t.Fatalf("DateToMilliseconds = %v; want 1000", got)
	}
}

func TestMillisecondsToDate_Concurrent(t *testing.T) {
	inputs := []float64{0, 1234567890, -1, 1.5, 951782400000, 253402300800000}
	want := make([]time.Time, len(inputs))
	wantErr := make([]bool, len(inputs))
	for i, ms := range inputs {
		got, err := MillisecondsToDate(ms)
		want[i], wantErr[i] = got, err != nil
	}

	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := range inputs {
				i := (g + j) % len(inputs)
				got, err := MillisecondsToDate(inputs[i])
				if (err != nil) != wantErr[i] || !got.Equal(want[i]) {
					t.Errorf("goroutine %d: MillisecondsToDate(%v) = %v, %v; want %v", g, inputs[i], got, err, want[i])
				}
			}
		}(g)
	}
	wg.Wait()
}
