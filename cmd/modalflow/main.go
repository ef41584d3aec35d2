package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"modalflow/pkg/analysis"
	"modalflow/pkg/config"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write a default configuration file to -config and exit")
	flowDir := flag.String("input", "", "Directory containing the .flo sequence (overrides config)")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	videoType := flag.String("video-type", "", "mono or stereo (overrides config)")
	modes := flag.Int("modes", 0, "Number of modes K (overrides config)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (overrides config)")
	pixel := flag.String("pixel", "", "Reference pixel as row,col (overrides config)")
	displacement := flag.String("displacement", "", "Reference displacement as comma-separated components (overrides config)")
	alpha := flag.Float64("alpha", -1, "Gain applied to the modal magnitude (overrides config)")
	maximize := flag.String("maximize", "", "disp or velocity (overrides config)")
	compareFrame := flag.Int("compare", -2, "Observed frame to compare against, -1 to disable (overrides config)")
	quiet := flag.Bool("quiet", false, "Suppress step logging")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line values take precedence over the configuration file
	if *flowDir != "" {
		cfg.Input.FlowDir = *flowDir
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *videoType != "" {
		cfg.Input.VideoType = *videoType
	}
	if *modes > 0 {
		cfg.Analysis.Modes = *modes
	}
	if *numCores > 0 {
		cfg.Analysis.NumCores = *numCores
	}
	if *pixel != "" {
		rowCol, err := parsePixel(*pixel)
		if err != nil {
			log.Fatalf("Invalid pixel %q: %v", *pixel, err)
		}
		cfg.Excitation.Pixel = rowCol
	}
	if *displacement != "" {
		values, err := parseFloats(*displacement)
		if err != nil {
			log.Fatalf("Invalid displacement %q: %v", *displacement, err)
		}
		cfg.Excitation.Displacement = values
	}
	if *alpha >= 0 {
		cfg.Excitation.Alpha = *alpha
	}
	if *maximize != "" {
		cfg.Excitation.Maximize = *maximize
	}
	if *compareFrame >= -1 {
		cfg.Output.CompareFrame = *compareFrame
	}
	if *quiet {
		cfg.Output.Verbose = false
	}

	if cfg.Input.FlowDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	params, err := analysis.ParamsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if params.Verbose {
		fmt.Println("================================")
		fmt.Println("MODAL ANALYSIS OF OPTICAL FLOW")
		fmt.Println("Image-space modal bases from recorded motion")
		fmt.Println("================================")
	}

	analyzer := analysis.NewAnalyzer(params)

	startTime := time.Now()
	if err := analyzer.Process(); err != nil {
		if analysis.IsFrameRangeError(err) {
			log.Fatalf("Invalid frame selection: %v", err)
		}
		log.Fatalf("Analysis failed: %v", err)
	}
	processingTime := time.Since(startTime)

	if !params.Verbose {
		return
	}

	fmt.Printf("\nAnalysis completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Results saved to: %s\n", params.OutputDir)

	fmt.Println("\nMode frequencies (rad/s):")
	for k, w := range analyzer.Frequencies() {
		fmt.Printf("  mode %2d: %.3f\n", k+1, w)
	}

	var compared []analysis.Metrics
	for _, res := range analyzer.Results() {
		if res.Metrics != nil {
			compared = append(compared, *res.Metrics)
		}
	}
	if len(compared) > 1 {
		summary, err := analysis.SummarizeMetrics(compared)
		if err != nil {
			log.Printf("Warning: Failed to summarize metrics: %v", err)
			return
		}
		fmt.Println("\nAgreement across views:")
		for _, name := range []string{"cross_correlation", "rmse", "mae", "mape", "cosine"} {
			s := summary[name]
			fmt.Printf("  %-17s mean=%.3f std=%.3f max=%.3f min=%.3f\n", name, s.Mean, s.Std, s.Max, s.Min)
		}
	}
}

// parsePixel parses a "row,col" pair of integers
func parsePixel(s string) ([2]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("expected row,col, got %d component(s)", len(parts))
	}
	var rowCol [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [2]int{}, err
		}
		rowCol[i] = v
	}
	return rowCol, nil
}

// parseFloats parses a comma-separated list of finite numbers
func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite component %q", p)
		}
		values = append(values, v)
	}
	return values, nil
}
