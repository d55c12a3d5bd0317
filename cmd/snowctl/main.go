package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/snowkit-io/snowkit/internal/config"
	"github.com/snowkit-io/snowkit/pkg/protocol"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "health":
		cmdHealth()
	case "tools":
		cmdTools()
	case "call":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: snowctl call <tool> [-p key=value ...] [-json '{...}']")
			os.Exit(1)
		}
		cmdCall(os.Args[2], os.Args[3:])
	case "calls":
		cmdCalls(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: snowctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func cmdHealth() {
	body, err := apiGet("/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdTools() {
	body, err := apiGet("/api/tools")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var defs []protocol.ToolDefinition
	json.Unmarshal(body, &defs)
	for _, d := range defs {
		fmt.Printf("%-24s %s\n", d.Name, d.Description)
	}
}

type paramFlags map[string]any

func (p paramFlags) String() string { return "" }

func (p paramFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	// Keep numbers and booleans typed so the daemon sees real JSON values.
	var v any
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		v = val
	}
	p[key] = v
	return nil
}

func cmdCall(name string, args []string) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	params := paramFlags{}
	fs.Var(params, "p", "Tool parameter as key=value (repeatable)")
	rawJSON := fs.String("json", "", "Tool parameters as a JSON object (overrides -p)")
	fs.Parse(args)

	if *rawJSON != "" {
		if err := json.Unmarshal([]byte(*rawJSON), (*map[string]any)(&params)); err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid -json: %v\n", err)
			os.Exit(1)
		}
	}

	body, err := apiPost("/api/tools/"+name, protocol.ToolCallRequest{Params: params})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var result protocol.ToolCallResult
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Println(string(body))
		return
	}
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "tool error: %s\n", result.Error)
		os.Exit(1)
	}
	fmt.Println(prettyJSON([]byte(result.Output)))
}

func cmdCalls(args []string) {
	fs := flag.NewFlagSet("calls", flag.ExitOnError)
	failed := fs.Bool("failed", false, "Only show failed calls")
	limit := fs.Int("limit", 20, "Max results")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *failed {
		query += "&failed=true"
	}

	body, err := apiGet("/api/calls" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var records []map[string]any
	json.Unmarshal(body, &records)
	for _, r := range records {
		status := fmt.Sprintf("%v", r["status"])
		if e, ok := r["error"].(string); ok && e != "" {
			status = "ERR"
		}
		fmt.Printf("%-26v %-6s %-4v %s\n", r["time"], r["method"], status, r["path"])
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

func apiGet(path string) ([]byte, error) {
	return apiDo("GET", path, nil)
}

func apiPost(path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return apiDo("POST", path, bytes.NewReader(data))
}

func apiDo(method, path string, body io.Reader) ([]byte, error) {
	base := envOr("SNOWKIT_CTL_URL", "http://localhost:8090")

	req, err := http.NewRequest(method, base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("SNOWKIT_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("snowctl - snowkit daemon CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  health                 Check daemon health")
	fmt.Println("  tools                  List registered tools")
	fmt.Println("  call <tool>            Call a tool (-p key=value ..., or -json '{...}')")
	fmt.Println("  calls                  Show recent ServiceNow calls (--failed, --limit)")
	fmt.Println("  config validate <path> Validate a config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SNOWKIT_CTL_URL  Daemon base URL (default http://localhost:8090)")
	fmt.Println("  SNOWKIT_API_KEY  Bearer key for the daemon API")
}
