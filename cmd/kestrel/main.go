package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/kestrelchess/engine/internal/config"
	"github.com/kestrelchess/engine/internal/engine"
	"github.com/kestrelchess/engine/internal/uci"
)

const (
	defaultWeightsFile     = "weights.txt"
	defaultLearnParamsFile = "learn_params.txt"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB      = flag.Int("hash", 128, "transposition table size in MB")
	weightsPath = flag.String("weights", "", "path to a weights file (defaults to ./weights.txt if present)")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine(*hashMB)

	if err := loadWeights(); err != nil {
		log.Printf("Warning: weights not loaded: %v (using built-in evaluation constants)", err)
	}

	uci.Drive(eng)
}

// loadWeights reads the weights file (and its companion learn_params.txt)
// named on the command line, falling back to weights.txt in the working
// directory, and installs the parsed vector into the evaluator. A
// missing file is not an error: built-in constants remain in effect.
func loadWeights() error {
	path := *weightsPath
	if path == "" {
		path = defaultWeightsFile
	}

	w, err := config.LoadWeights(path)
	if err != nil {
		return err
	}
	if err := config.LoadLearnParams(filepath.Join(filepath.Dir(path), defaultLearnParamsFile), &w); err != nil {
		return err
	}
	return config.Apply(w)
}
