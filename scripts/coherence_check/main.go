// Command coherence_check reads the same routes from two planner instances that share
// one store and reports where their payloads disagree.
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
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/api/v1/courses", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/upcoming", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/calendar", Critical: false},
}

type comparison struct {
	Target    target
	StatusA   int
	StatusB   int
	OriginA   string
	OriginB   string
	StatusOK  bool
	BodyMatch bool
	Error     error
	DurationA time.Duration
	DurationB time.Duration
}

func main() {
	var (
		baseA       string
		baseB       string
		targetsPath string
		timeout     time.Duration
		settle      time.Duration
	)

	flag.StringVar(&baseA, "a", "http://localhost:8080", "first planner base URL")
	flag.StringVar(&baseB, "b", "http://localhost:8081", "second planner base URL")
	flag.StringVar(&targetsPath, "targets", "", "optional path to a JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.DurationVar(&settle, "settle", 0, "wait before comparing so change notifications can propagate")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	if settle > 0 {
		time.Sleep(settle)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, baseA, baseB, t)
		switch {
		case comp.Error != nil:
			if t.Critical {
				breaking++
			}
		case !comp.StatusOK || !comp.BodyMatch:
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, baseA, baseB string, tgt target) comparison {
	comp := comparison{Target: tgt}
	bodyA, respA, durA, errA := fetch(client, baseA, tgt)
	bodyB, respB, durB, errB := fetch(client, baseB, tgt)
	comp.DurationA = durA
	comp.DurationB = durB

	if errA != nil {
		comp.Error = fmt.Errorf("instance a: %w", errA)
		return comp
	}
	if errB != nil {
		comp.Error = fmt.Errorf("instance b: %w", errB)
		return comp
	}

	comp.StatusA = respA.StatusCode
	comp.StatusB = respB.StatusCode
	comp.OriginA = respA.Header.Get("X-Planner-Origin")
	comp.OriginB = respB.Header.Get("X-Planner-Origin")
	comp.StatusOK = comp.StatusA == comp.StatusB
	comp.BodyMatch = dataEqual(bodyA, bodyB)
	return comp
}

func fetch(client *http.Client, base string, tgt target) ([]byte, *http.Response, time.Duration, error) {
	if client == nil {
		return nil, nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp, time.Since(start), nil
}

// dataEqual compares only the envelope data; meta carries per-request timings.
func dataEqual(a, b []byte) bool {
	var ea, eb struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(a, &ea); err != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	if err := json.Unmarshal(b, &eb); err != nil {
		return false
	}
	return jsonEqual(ea.Data, eb.Data) && jsonEqual(ea.Error, eb.Error)
}

func jsonEqual(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(aj, bj)
}

func printReport(results []comparison) {
	fmt.Println("Coherence Report")
	fmt.Println("================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusOK || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  A: %d (%s) origin=%s\n", res.StatusA, res.DurationA, res.OriginA)
		fmt.Printf("  B: %d (%s) origin=%s\n", res.StatusB, res.DurationB, res.OriginB)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusOK, res.BodyMatch, res.Target.Critical)
		}
	}
}
