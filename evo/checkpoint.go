package evo

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// gaSaveData holds the parts of a GA needed to resume it.
// The fitness function is not saved; it is supplied again on load.
type gaSaveData struct {
	Config      GAConfig
	Population  []Bitstring
	Generation  int
	Evaluations int
	Best        Bitstring
	BestFitness float64
	RandState   []byte
}

// esSaveData holds the parts of an ES needed to resume it.
type esSaveData struct {
	Config      ESConfig
	Population  []Member
	Generation  int
	Evaluations int
	Best        Member
	BestFitness float64
	RandState   []byte
}

// SaveCheckpoint saves the current state of the GA to a gzip compressed
// gob file. Resuming from it continues the exact same trajectory.
func (ga *GA) SaveCheckpoint(filePath string) error {
	randState, err := ga.rng.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal random state: %w", err)
	}

	saveData := gaSaveData{
		Config:      ga.Config,
		Population:  ga.Population,
		Generation:  ga.Generation,
		Evaluations: ga.Evaluations,
		Best:        ga.Best,
		BestFitness: ga.BestFitness,
		RandState:   randState,
	}
	if err := writeCheckpoint(filePath, &saveData); err != nil {
		return err
	}

	ga.opts.log.Info("checkpoint saved", zap.String("path", filePath), zap.Int("generation", ga.Generation))
	return nil
}

// LoadGACheckpoint restores a GA saved by SaveCheckpoint.
func LoadGACheckpoint(filePath string, fitness BitFitness, opts ...Option) (*GA, error) {
	var saveData gaSaveData
	if err := readCheckpoint(filePath, &saveData); err != nil {
		return nil, err
	}

	ga, err := NewGA(saveData.Config, fitness, 0, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to re-create GA from checkpoint: %w", err)
	}
	if err := ga.rng.UnmarshalBinary(saveData.RandState); err != nil {
		return nil, fmt.Errorf("failed to restore random state: %w", err)
	}
	ga.Population = saveData.Population
	ga.Generation = saveData.Generation
	ga.Evaluations = saveData.Evaluations
	ga.Best = saveData.Best
	ga.BestFitness = saveData.BestFitness

	ga.opts.log.Info("checkpoint loaded", zap.String("path", filePath), zap.Int("generation", ga.Generation))
	return ga, nil
}

// SaveCheckpoint saves the current state of the ES.
func (es *ES) SaveCheckpoint(filePath string) error {
	randState, err := es.rng.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal random state: %w", err)
	}

	saveData := esSaveData{
		Config:      es.Config,
		Population:  es.Population,
		Generation:  es.Generation,
		Evaluations: es.Evaluations,
		Best:        es.Best,
		BestFitness: es.BestFitness,
		RandState:   randState,
	}
	if err := writeCheckpoint(filePath, &saveData); err != nil {
		return err
	}

	es.opts.log.Info("checkpoint saved", zap.String("path", filePath), zap.Int("generation", es.Generation))
	return nil
}

// LoadESCheckpoint restores an ES saved by SaveCheckpoint.
func LoadESCheckpoint(filePath string, objective Objective, opts ...Option) (*ES, error) {
	var saveData esSaveData
	if err := readCheckpoint(filePath, &saveData); err != nil {
		return nil, err
	}

	es, err := NewES(saveData.Config, objective, 0, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to re-create ES from checkpoint: %w", err)
	}
	if err := es.rng.UnmarshalBinary(saveData.RandState); err != nil {
		return nil, fmt.Errorf("failed to restore random state: %w", err)
	}
	es.Population = saveData.Population
	es.Generation = saveData.Generation
	es.Evaluations = saveData.Evaluations
	es.Best = saveData.Best
	es.BestFitness = saveData.BestFitness

	es.opts.log.Info("checkpoint loaded", zap.String("path", filePath), zap.Int("generation", es.Generation))
	return es, nil
}

func writeCheckpoint(filePath string, data any) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	// Use gzip for compression
	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode checkpoint data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint file '%s': %w", filePath, err)
	}
	return file.Close()
}

func readCheckpoint(filePath string, data any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	if err := gob.NewDecoder(gzReader).Decode(data); err != nil {
		return fmt.Errorf("failed to decode checkpoint data: %w", err)
	}
	return nil
}
