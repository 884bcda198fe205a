package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/wset-admin-api/internal/middleware"
)

// delivery is one replayed order and how the webhook answered it.
type delivery struct {
	File     string
	OrderID  string
	Status   int
	Code     string
	Message  string
	Duration time.Duration
	Error    error
}

func main() {
	var (
		baseURL string
		dir     string
		secret  string
		timeout time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&dir, "dir", filepath.Join("scripts", "replay_orders", "orders"), "Directory of order JSON files")
	flag.StringVar(&secret, "secret", os.Getenv("ORDER_WEBHOOK_SECRET"), "Webhook signing secret")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	files, err := orderFiles(dir)
	if err != nil {
		log.Fatalf("failed to list orders: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	endpoint := strings.TrimRight(baseURL, "/") + "/orders/webhook"

	var results []delivery
	failed := 0
	for _, file := range files {
		res := replay(client, endpoint, secret, file)
		if res.Error != nil || res.Status >= http.StatusInternalServerError {
			failed++
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Replayed: %d, Failed: %d\n", len(results), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func orderFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no order files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func replay(client *http.Client, endpoint, secret, file string) delivery {
	res := delivery{File: filepath.Base(file)}
	body, err := os.ReadFile(file)
	if err != nil {
		res.Error = err
		return res
	}
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		res.Error = fmt.Errorf("decode order: %w", err)
		return res
	}
	res.OrderID = head.ID

	req, err := newWebhookRequest(endpoint, secret, body)
	if err != nil {
		res.Error = err
		return res
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()
	res.Duration = time.Since(start)
	res.Status = resp.StatusCode

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read response: %w", err)
		return res
	}
	res.Code, res.Message = errorSummary(payload)
	return res
}

func newWebhookRequest(endpoint, secret string, body []byte) (*http.Request, error) {
	if endpoint == "" {
		return nil, errors.New("empty endpoint")
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(middleware.WebhookSignatureHeader, middleware.SignWebhook(secret, body))
	}
	return req, nil
}

func errorSummary(payload []byte) (string, string) {
	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Error == nil {
		return "", ""
	}
	return envelope.Error.Code, envelope.Error.Message
}

func printReport(results []delivery) {
	fmt.Println("Order Replay Report")
	fmt.Println("===================")
	for _, res := range results {
		outcome := "ACCEPTED"
		switch {
		case res.Error != nil:
			outcome = "ERROR"
		case res.Status == http.StatusOK:
			outcome = "DUPLICATE"
		case res.Status >= http.StatusBadRequest:
			outcome = "REJECTED"
		}
		fmt.Printf("[%s] %s (order %s)\n", outcome, res.File, res.OrderID)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		if res.Code != "" {
			fmt.Printf("  %s: %s\n", res.Code, res.Message)
		}
	}
}
