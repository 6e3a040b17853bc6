// Command extract runs the decode and extraction stages on a local file and
// prints the validated records as JSON. Nothing is persisted.
//
//	extract -kind answer_key key.pdf
//	extract -kind student script.jpg
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/exam-grader/internal/common"
	"github.com/joseph-ayodele/exam-grader/internal/document"
	"github.com/joseph-ayodele/exam-grader/internal/llm"
	"github.com/joseph-ayodele/exam-grader/internal/llm/gemini"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	kind := flag.String("kind", "answer_key", "what to extract: answer_key or student")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline")
	flag.Parse()

	if flag.NArg() != 1 || (*kind != "answer_key" && *kind != "student") {
		fmt.Fprintln(os.Stderr, "usage: extract [-kind answer_key|student] [-timeout 3m] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("GEMINI_API_KEY env var is required")
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	decoder := document.NewDecoder(document.Config{
		Pdftoppm: cfg.Decoder.Pdftoppm,
		DPI:      cfg.Decoder.DPI,
		TempDir:  cfg.Decoder.TempDir,
	}, logger)
	images, err := decoder.Decode(ctx, data)
	if err != nil {
		logger.Error("decode", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("decoded", "path", path, "pages", len(images))

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		logger.Error("gemini client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	extractor, err := llm.NewExtractor(client, cfg.LLM.Timeout, logger)
	if err != nil {
		logger.Error("extractor", "error", err)
		os.Exit(1)
	}

	var out any
	switch *kind {
	case "answer_key":
		out, err = extractor.ExtractAnswerKey(ctx, images)
	case "student":
		out, err = extractor.ExtractStudentDetail(ctx, images)
	}
	if err != nil {
		logger.Error("extract", "kind", *kind, "stage", common.StageOf(err), "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
