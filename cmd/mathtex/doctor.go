package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/config"
	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Model    modelInfo  `json:"model"`
	Renderer engineInfo `json:"renderer"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// modelInfo holds model provider checks.
type modelInfo struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	KeyEnv    string `json:"api_key_env"`
	KeyFound  bool   `json:"api_key_found"`
	BaseURL   string `json:"base_url,omitempty"`
	MaxTokens int    `json:"max_tokens"`
}

// engineInfo holds the KaTeX locations in use.
type engineInfo struct {
	Version    string `json:"katex_version"`
	Stylesheet string `json:"stylesheet"`
	Core       string `json:"core"`
	AutoRender string `json:"auto_render"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = usage.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var jsonOutput bool
	var configName string
	fs.BoolVar(&jsonOutput, "json", false, "output as JSON")
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	cfg, _, err := loadSettings(configName)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}

	result := runDoctor(cfg)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config) *doctorResult {
	browserBin := cfg.Renderer.BrowserBin
	if browserBin == "" {
		browserBin = os.Getenv("ROD_BROWSER_BIN")
	}
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: browserBin,
		},
	}
	if cfg.Renderer.NoSandbox {
		result.Env.NoSandbox = "1"
	}

	checkChrome(result)
	checkEnvironment(result)
	checkModel(result, cfg.LLM)
	checkEngine(result, cfg.Renderer)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; rod will download one on first render (set ROD_BROWSER_BIN to avoid it)")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// #nosec G204 -- the browser path is the user's own configuration
	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but the sandbox is enabled. Set ROD_NO_SANDBOX=1 or renderer.noSandbox")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("MATHTEX_CONTAINER") == "1" {
		return true, "MATHTEX_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkModel reports the provider in use and whether its key is set.
func checkModel(result *doctorResult, llm config.LLMConfig) {
	provider := strings.ToLower(llm.Provider)
	if provider == "" {
		provider = mathtex.ProviderAnthropic
	}
	model := llm.Model
	if model == "" {
		model = mathtex.DefaultModel
		if provider == mathtex.ProviderOpenAI {
			model = mathtex.DefaultOpenAIModel
		}
	}
	maxTokens := llm.MaxTokens
	if maxTokens == 0 {
		maxTokens = mathtex.DefaultMaxTokens
	}

	keyEnv := apiKeyEnv(llm)
	result.Model = modelInfo{
		Provider:  provider,
		Model:     model,
		KeyEnv:    keyEnv,
		KeyFound:  os.Getenv(keyEnv) != "",
		BaseURL:   llm.BaseURL,
		MaxTokens: maxTokens,
	}

	switch provider {
	case mathtex.ProviderAnthropic, mathtex.ProviderOpenAI:
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown provider %q (use anthropic or openai)", provider))
		return
	}

	if !result.Model.KeyFound {
		if provider == mathtex.ProviderOpenAI && llm.BaseURL != "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is not set; fine for servers without authentication", keyEnv))
			return
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s is not set", keyEnv))
	}
}

// checkEngine reports the KaTeX resources and checks local file:// copies.
func checkEngine(result *doctorResult, r config.RendererConfig) {
	defaults := mathtex.DefaultEngineAssets()
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	result.Renderer = engineInfo{
		Version:    mathtex.KaTeXVersion,
		Stylesheet: pick(r.Stylesheet, defaults.Stylesheet),
		Core:       pick(r.Core, defaults.Core),
		AutoRender: pick(r.AutoRender, defaults.AutoRender),
	}

	for _, u := range []string{result.Renderer.Stylesheet, result.Renderer.Core, result.Renderer.AutoRender} {
		if path, ok := strings.CutPrefix(u, "file://"); ok {
			if _, err := os.Stat(path); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("KaTeX file missing: %s", path))
			}
		}
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mathtex doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Model")
	fmt.Fprintf(w, "  [OK] Provider: %s (%s, %d tokens)\n", r.Model.Provider, r.Model.Model, r.Model.MaxTokens)
	if r.Model.BaseURL != "" {
		fmt.Fprintf(w, "  [OK] Endpoint: %s\n", r.Model.BaseURL)
	}
	if r.Model.KeyFound {
		fmt.Fprintf(w, "  [OK] API key: %s set\n", r.Model.KeyEnv)
	} else {
		fmt.Fprintf(w, "  [ERROR] API key: %s not set\n", r.Model.KeyEnv)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Renderer")
	fmt.Fprintf(w, "  [OK] KaTeX %s from %s\n", r.Renderer.Version, r.Renderer.Core)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: READY")
	case "warnings":
		fmt.Fprintln(w, "Status: READY (with warnings)")
	default:
		fmt.Fprintln(w, "Status: NOT READY")
	}
}
