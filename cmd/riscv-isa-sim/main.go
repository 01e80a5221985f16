/*
 * riscv-isa-sim - Main process
 *
 * Copyright 2026, riscv-isa-sim Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/davetw/riscv-isa-sim/config/configparser"
	machineconfig "github.com/davetw/riscv-isa-sim/config/machineconfig"
	"github.com/davetw/riscv-isa-sim/internal/clock"
	logger "github.com/davetw/riscv-isa-sim/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "machine.cfg", "Machine description file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optRealTime := getopt.BoolLong("real-time", 'r', "Force CLINT into real-time mode")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("could not create log file", "path", *optLogFile, "error", err)
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel}, *optDebug))
	slog.SetDefault(log)

	log.Info("riscv-isa-sim started")

	if optConfig == nil || *optConfig == "" {
		log.Error("no machine description file specified")
		os.Exit(1)
	}
	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		log.Error("machine description file not found", "path", *optConfig)
		os.Exit(1)
	}

	machineconfig.Reset()
	if err := config.LoadConfigFile(*optConfig); err != nil {
		log.Error("failed to load machine description", "error", err)
		os.Exit(1)
	}

	var clk clock.Source = clock.System{}
	m, err := machineconfig.Build(clk)
	if err != nil {
		log.Error("failed to build machine", "error", err)
		os.Exit(1)
	}
	if *optRealTime && m.Clint != nil {
		m.Clint.SetRealTime(true)
		log.Info("real-time override applied from the command line")
	}

	log.Info("machine assembled", "harts", len(m.Harts))
}
