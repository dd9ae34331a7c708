// Headless batch run: answers every checklist question from a corpus file and writes the exports.
//
// Usage: go run scripts/generate_all.go -corpus sad.md -out out/
//
// The API key comes from configs/config.yaml or AI_API_KEY / OPENAI_API_KEY.

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/repository"
	"qdrt_backend/internal/service"
	"qdrt_backend/internal/util"
	"qdrt_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	configFile := flag.String("config", "configs/config.yaml", "config file")
	corpusFile := flag.String("corpus", "", "reference document (text, markdown or HTML)")
	outDir := flag.String("out", ".", "directory for the exported files")
	flag.Parse()

	if *corpusFile == "" {
		log.Fatal("-corpus is required")
	}

	data, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}
	cfg.ApplyDefaults()
	if key := firstEnv("AI_API_KEY", "OPENAI_API_KEY", "QDRT_AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}

	logger.InitLogger(&cfg)
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The run is self-contained: nothing is read from or written to the server's state.
	store := repository.NewMemoryStateStore()
	answers := repository.NewAnswerRepository(ctx, store, cfg.State.Namespace)
	corpus := repository.NewCorpusRepository(ctx, store, cfg.State.Namespace)
	schema := checklist.Default()

	ingest := service.NewCorpusService(corpus, int64(cfg.Upload.MaxFileMB)<<20)
	result := ingest.Ingest(ctx, []service.SourceFile{localFile(*corpusFile)})
	for _, f := range result.Files {
		log.Printf("%s: %s (%d chars) %s", f.Name, f.Strategy, f.Chars, f.Error)
	}

	generator := service.NewGeneratorService(schema, answers, corpus, service.NewAIService(cfg.AI), cfg.AI.MaxContextChars)
	report, err := generator.GenerateAll(ctx)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	log.Printf("Answered %d of %d questions", len(report.Succeeded), report.Total)
	for _, f := range report.Failed {
		log.Printf("Question %d failed: %s", f.QuestionID, f.Error)
	}

	exporter := service.NewExportService(schema, answers, service.NewStorageService(&cfg))
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}
	for _, format := range []string{util.FormatXLSX, util.FormatJSON} {
		artifact, err := exporter.Export(format)
		if err != nil {
			log.Fatalf("Export %s failed: %v", format, err)
		}
		dst := filepath.Join(*outDir, artifact.FileName)
		if err := os.WriteFile(dst, artifact.Data, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", dst, err)
		}
		log.Printf("Wrote %s", dst)
	}
}

type localFile string

func (f localFile) Name() string { return filepath.Base(string(f)) }

func (f localFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
