// Command example exercises the sessionseal handler against each of the
// bundled stores. It writes a number of fake sessions, reads them back,
// verifies the round trip and destroys them, optionally dumping metrics.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/logrusorgru/aurora"
	"github.com/rcrowley/go-metrics"
	"github.com/redis/go-redis/v9"

	"github.com/sessionseal/sessionseal"
	"github.com/sessionseal/sessionseal/pkg/crypto/aead"
	seallog "github.com/sessionseal/sessionseal/pkg/log"
	"github.com/sessionseal/sessionseal/pkg/persistence"
)

const (
	fileStore     = "FILE"
	redisStore    = "REDIS"
	rdbmsStore    = "RDBMS"
	dynamodbStore = "DYNAMODB"
)

type Options struct {
	Count            int    `short:"c" long:"count" default:"100" description:"Number of sessions to write per run."`
	Store            string `long:"store" description:"Configure what store to use (FILE, REDIS, RDBMS, DYNAMODB; in-memory by default)"`
	Cipher           string `long:"cipher" default:"aes-256-gcm" description:"AEAD cipher identifier"`
	Hash             string `long:"hash" default:"sha256" description:"HMAC hash identifier"`
	Entropy          string `long:"entropy" env:"SEAL_ENTROPY" description:"Deployment entropy (at least 64 characters)"`
	Dir              string `long:"dir" description:"Directory for the file store"`
	RedisAddr        string `long:"redis" default:"localhost:6379" description:"Redis address for the redis store"`
	ConnectionString string `short:"C" long:"conn" description:"MySQL connection string for the RDBMS store"`
	Metrics          bool   `short:"m" long:"metrics" description:"Dumps metrics to stdout in JSON format"`
	Verbose          bool   `short:"v" long:"verbose" description:"Enables verbose output"`
}

var opts Options

type loggerFunc func(format string, v ...interface{})

func (f loggerFunc) Debugf(format string, v ...interface{}) {
	f(format, v...)
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}

		panic(err)
	}

	if opts.Verbose {
		seallog.SetLogger(loggerFunc(log.Printf))
	}

	if opts.Entropy == "" {
		// demo-only entropy; supply your own via --entropy or SEAL_ENTROPY
		opts.Entropy = "thisIsADemoEntropyValueDoNotUseInProduction0123456789abcdefghijk"
	}

	cipher, err := aead.ForCipher(opts.Cipher)
	if err != nil {
		log.Fatal(err)
	}

	handler, err := sessionseal.NewHandler(&sessionseal.Config{
		Cipher:  opts.Cipher,
		Hash:    opts.Hash,
		Entropy: opts.Entropy,
	}, CreateStore(), cipher)
	if err != nil {
		log.Fatal(err)
	}
	defer handler.Release()

	if err := handler.Open(opts.Dir, "example"); err != nil {
		log.Fatal(err)
	}
	defer handler.Close()

	ctx := context.Background()
	start := time.Now()

	ids := make([]string, opts.Count)
	for i := range ids {
		ids[i] = uuid.NewString()

		payload := []byte(fmt.Sprintf(`{"user":%d,"cart":["a","b"],"seen":%q}`, i, time.Now().Format(time.RFC3339)))

		if err := handler.Write(ctx, ids[i], payload); err != nil {
			log.Fatalf("write failed for %s: %v", ids[i], err)
		}

		got, err := handler.Read(ctx, ids[i])
		if err != nil {
			log.Fatalf("read failed for %s: %v", ids[i], err)
		}

		if string(got) != string(payload) {
			log.Fatalf("round trip mismatch for %s", ids[i])
		}
	}

	for _, id := range ids {
		if err := handler.Destroy(ctx, id); err != nil {
			log.Fatalf("destroy failed for %s: %v", id, err)
		}
	}

	fmt.Println(aurora.Green(fmt.Sprintf("round-tripped and destroyed %d sessions in %s", opts.Count, time.Since(start))))

	if opts.Metrics {
		PrintMetrics()
	}
}

// CreateStore builds the store selected on the command line.
func CreateStore() sessionseal.Store {
	switch opts.Store {
	case fileStore:
		dir := opts.Dir
		if dir == "" {
			dir = os.TempDir()
		}

		log.Printf("Using file store in %s...", dir)

		return persistence.NewFileStore(dir)

	case redisStore:
		log.Printf("Using redis store at %s...", opts.RedisAddr)

		return persistence.NewRedisStore(redis.NewClient(&redis.Options{Addr: opts.RedisAddr}))

	case rdbmsStore:
		if opts.ConnectionString == "" {
			log.Fatal("connection string is a mandatory parameter with store type RDBMS")
		}

		log.Printf("Using mysql store...")

		db, err := sql.Open("mysql", opts.ConnectionString)
		if err != nil {
			log.Fatal(err)
		}

		return persistence.NewSQLStore(db)

	case dynamodbStore:
		log.Printf("Using dynamodb store...")

		sess := session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))

		return persistence.NewDynamoDBStore(sess)
	}

	log.Printf("Using in-memory store...")

	return persistence.NewMemoryStore()
}

// PrintMetrics dumps the default metrics registry to stdout as JSON.
func PrintMetrics() {
	out, err := json.MarshalIndent(metrics.DefaultRegistry, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(aurora.Cyan("Metrics:"))
	fmt.Println(string(out))
}
