package main

import (
	"flag"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: discover)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	writeDefault := flag.Bool("write-config", false, "Write a default config file and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("makovodd %s\n", version)
		os.Exit(0)
	}

	if *writeDefault {
		path := *configPath
		if path == "" {
			path = "config.toml"
		}
		if err := writeDefaultConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
		os.Exit(0)
	}

	if err := runServer(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
