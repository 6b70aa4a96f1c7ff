//go:build ignore

// build.go - Autobill Build System
// Usage: go run build.go [-target=TARGET] [-v] [-version=VERSION]
// Targets: all, web, billing, clean, test

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "autobill"

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	Version string
}

var (
	distDir = "dist"

	// Executable names (key = cmd directory, value = output name)
	executables = map[string]string{
		"web":     "autobill-web",
		"billing": "autobill",
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "dev", "Version stamped into the binaries")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	buildCtx := &BuildContext{Verbose: *verbose, Version: *version}

	switch *target {
	case "all":
		for name := range executables {
			buildExecutable(name, buildCtx)
		}
	case "web", "billing":
		buildExecutable(*target, buildCtx)
	case "clean":
		clean()
	case "test":
		runTests(buildCtx.Verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	duration := time.Since(startTime)
	printSuccess(fmt.Sprintf("Build completed in %s", duration.Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        Autobill - Build System            " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

// buildExecutable builds ./cmd/<name> into the dist directory.
func buildExecutable(name string, ctx *BuildContext) {
	exeName := executables[name]
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}

	printInfo(fmt.Sprintf("Building %s...", name))

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.Version=%s -X %s/internal/app.BuildTime=%s",
		module, ctx.Version, module, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-version=VERSION]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all        Build every executable (default)")
	fmt.Println("  web        Build the HTTP server")
	fmt.Println("  billing    Build the command-line tool")
	fmt.Println("  clean      Remove build artifacts")
	fmt.Println("  test       Run all tests")
}
