// Package evo provides Go implementations of classic evolutionary algorithms:
// a simple genetic algorithm (SGA) over bitstrings and a (mu, lambda)
// evolution strategy with self-adaptive step sizes.
//
// Both algorithms maximise a fitness in (0, 1]. Benchmark problems (MaxOnes,
// the generalized Rosenbrock function and Himmelblau's function) live in the
// evo/benchmark package, a parameter tuning harness in the tuning package.
//
// Basic usage:
//
//	// Load configuration
//	config, err := evo.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Resolve the benchmark problem and its bitstring encoding
//	problem, err := benchmark.Lookup(config.Run.Problem, config.Run.Dims)
//	if err != nil {
//		log.Fatalf("Error resolving problem: %v", err)
//	}
//	fitness, err := problem.BitFitness(config.GA.MemSize)
//	if err != nil {
//		log.Fatalf("Error building fitness: %v", err)
//	}
//
//	// Create the algorithm and run it to convergence or max_iters
//	ga, err := evo.NewGA(config.GA, fitness, config.Run.Seed)
//	if err != nil {
//		log.Fatalf("Error creating GA: %v", err)
//	}
//	result, err := ga.Run(context.Background())
//	if err != nil {
//		log.Fatalf("Error running GA: %v", err)
//	}
//	fmt.Println(result.Best, result.BestFitness)
package evo
