package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"

	"review-radar/storage"
)

// BackupConfig hält die Konfiguration für das Backup des Review-Caches.
type BackupConfig struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	S3Bucket    string `envconfig:"BACKUP_S3_BUCKET" required:"true"`
	S3Endpoint  string `envconfig:"BACKUP_S3_ENDPOINT" required:"true"`
	S3AccessKey string `envconfig:"BACKUP_S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"BACKUP_S3_SECRET_KEY" required:"true"`
	S3Region    string `envconfig:"BACKUP_S3_REGION" required:"true"`

	KeyPrefix   string `envconfig:"BACKUP_KEY_PREFIX" default:"review-radar/"`
	KeepBackups int    `envconfig:"KEEP_BACKUPS" default:"7"`
}

func main() {
	log.Println("Starte Backup des Review-Caches...")

	var cfg BackupConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	ctx := context.Background()

	dump, err := dumpDatabase(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des DB-Dumps: %v", err)
	}

	client, err := storage.NewS3Client(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	key := fmt.Sprintf("%scache-%s.sql.gz", cfg.KeyPrefix, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if err := storage.Upload(ctx, client, cfg.S3Bucket, key, dump); err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Backup erfolgreich nach s3://%s/%s hochgeladen", cfg.S3Bucket, key)

	if err := rotateBackups(ctx, client, cfg); err != nil {
		log.Fatalf("Fehler bei der Rotation alter Backups: %v", err)
	}

	log.Println("Backup-Prozess erfolgreich abgeschlossen.")
}

// dumpDatabase erzeugt einen gzip-komprimierten pg_dump der Cache-Datenbank.
func dumpDatabase(cfg BackupConfig) ([]byte, error) {
	cmd := exec.Command("pg_dump",
		"-h", cfg.DBHost,
		"-U", cfg.DBUser,
		"-d", cfg.DBName,
		"-w", // Passwort kommt über PGPASSWORD
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+cfg.DBPassword)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := io.Copy(gz, stdout); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rotateBackups behält die KeepBackups neuesten Dumps unter dem Key-Prefix und
// löscht alle älteren.
func rotateBackups(ctx context.Context, client *s3.Client, cfg BackupConfig) error {
	keys, err := storage.ListKeysByAge(ctx, client, cfg.S3Bucket, cfg.KeyPrefix)
	if err != nil {
		return err
	}
	if len(keys) <= cfg.KeepBackups {
		log.Printf("Weniger als %d Backups vorhanden, keine Rotation nötig.", cfg.KeepBackups)
		return nil
	}
	for _, key := range keys[cfg.KeepBackups:] {
		log.Printf("Lösche altes Backup: %s", key)
		if err := storage.Delete(ctx, client, cfg.S3Bucket, key); err != nil {
			log.Printf("Fehler beim Löschen von %s: %v", key, err)
		}
	}
	return nil
}
