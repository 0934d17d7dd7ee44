package main

import (
	"context"
	"log"
	"time"

	"geotime/internal/decode"
	"geotime/internal/env"
	"geotime/internal/keys"
	"geotime/internal/models"
	"geotime/internal/service"
	"geotime/internal/storage"
	"geotime/pkg/graceful"
	"geotime/pkg/kafkaclient"
)

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	kafkaGroupID := env.MustGetEnv("KAFKA_GROUP_ID")
	bucketName := env.MustGetEnv("OBSERVATION_BUCKET_NAME")

	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %s", kafkaBroker, kafkaTopic, kafkaGroupID)
	consumer, err := kafkaclient.NewKafkaConsumer(kafkaTopic, kafkaGroupID, kafkaBroker)
	if err != nil {
		log.Fatalf("Failed to create kafka consumer %v", err)
	}

	s3Service, err := storage.NewS3Service(keys.Observation)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s3Service.CreateBucket(ctx, bucketName, ""); err != nil {
		log.Fatal(err)
	}
	stores := map[string]decode.ObservationStore{"s3": s3Service.Bucket(bucketName)}

	if databaseURL := env.GetEnv("DATABASE_URL", ""); databaseURL != "" {
		pg, err := storage.OpenPostgres(ctx, databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		if err := pg.InitSchema(ctx); err != nil {
			log.Fatal(err)
		}
		stores["postgres"] = pg
	}

	var publisher decode.Publisher
	if outputTopic := env.GetEnv("KAFKA_OUTPUT_TOPIC", ""); outputTopic != "" {
		producer := kafkaclient.NewProducer(outputTopic, kafkaBroker)
		defer producer.Close()
		publisher = producer
	}

	start := time.Now()
	consumer.StartConsuming(ctx)
	records := service.NewIterator(consumer, service.DecodeRecord)

	items := make(chan *decode.Item)
	go func() {
		defer close(items)
		for obj := range records.Objects(ctx) {
			select {
			case items <- decode.NewItem(obj):
			case <-ctx.Done():
				return
			}
		}
	}()

	pipeline := decode.NewPipeline(records, publisher, stores).
		OnError(decode.StopOnUnstored(cancel))
	processed := pipeline.Process(ctx, items)

	consumer.Stop()
	log.Printf("Decoded %d records (%d new objects) in %s", processed, s3Service.Stored(), time.Since(start))
}

// compile-time checks that the sinks fit the pipeline
var (
	_ decode.ObservationStore = (*storage.BucketStore)(nil)
	_ decode.ObservationStore = (*storage.PostgresStore)(nil)
	_ decode.Publisher        = (*kafkaclient.Producer)(nil)
	_ decode.Committer        = (*service.Iterator[*models.Record])(nil)
)
