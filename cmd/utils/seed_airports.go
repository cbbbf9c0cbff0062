package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"planpilot-service/internal/infrastructure/config"
	"planpilot-service/internal/infrastructure/persistence"
	"planpilot-service/internal/interface/repository"
)

// Seeds the airports reference table from a CSV file with the columns
// iata,name,city,country,country_code,latitude,longitude. Rows are upserted
// so the command can be re-run against a newer dataset.
func main() {
	path := flag.String("file", "airports.csv", "path to the airports CSV file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := persistence.NewPostgresDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 7

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header: %v", err)
	}

	var batch []repository.Airports
	seeded, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read row: %v", err)
		}

		airport, ok := parseAirportRow(record)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, airport)
		if len(batch) == 500 {
			seeded += flushBatch(db, batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		seeded += flushBatch(db, batch)
	}

	fmt.Printf("Seeded %d airports (%d rows skipped)\n", seeded, skipped)
}

func parseAirportRow(record []string) (repository.Airports, bool) {
	iata := strings.ToUpper(strings.TrimSpace(record[0]))
	if len(iata) != 3 {
		return repository.Airports{}, false
	}
	airport := repository.Airports{
		IATA:        iata,
		Name:        strings.TrimSpace(record[1]),
		City:        strings.TrimSpace(record[2]),
		Country:     strings.TrimSpace(record[3]),
		CountryCode: strings.ToUpper(strings.TrimSpace(record[4])),
	}
	if lat, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64); err == nil {
		if lon, err := strconv.ParseFloat(strings.TrimSpace(record[6]), 64); err == nil {
			airport.Latitude = &lat
			airport.Longitude = &lon
		}
	}
	return airport, true
}

func flushBatch(db *gorm.DB, batch []repository.Airports) int {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "iata"}},
		UpdateAll: true,
	}).Create(&batch)
	if result.Error != nil {
		log.Fatalf("Failed to upsert batch: %v", result.Error)
	}
	return len(batch)
}
