package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/gomidi"
	"github.com/kirosynth/kiro/host"
	"github.com/kirosynth/kiro/oto"
	"github.com/kirosynth/kiro/rpc"
	"github.com/kirosynth/kiro/version"
	"github.com/kirosynth/kiro/vm"
)

func main() {
	sampleRate := flag.Int("r", 48000, "Sample rate of the audio device.")
	latency := flag.Duration("b", oto.DefaultBufferSize, "Buffer size requested from the audio device.")
	programFile := flag.String("p", "", "Program to load, as a .yml file. By default, the init program is used.")
	midiIn := flag.String("m", "", "Listen to the first MIDI input whose name starts with this prefix.")
	midiChannel := flag.Int("ch", -1, "MIDI channel to listen to, 0-15; negative listens to all.")
	listen := flag.String("l", "", "Accept events over rpc on this address, e.g. :"+rpc.DefaultPort)
	verbose := flag.Bool("d", false, "Log debug messages and the status of the player.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	program := kiro.DefaultProgram()
	if *programFile != "" {
		b, err := os.ReadFile(*programFile)
		if err != nil {
			logger.Error("could not read program", "file", *programFile, "err", err)
			os.Exit(1)
		}
		program = kiro.Program{}
		if err := yaml.Unmarshal(b, &program); err != nil {
			logger.Error("could not parse program", "file", *programFile, "err", err)
			os.Exit(1)
		}
	}
	patch, err := vm.Compile(program, *sampleRate)
	if err != nil {
		logger.Error("could not compile program", "err", err)
		os.Exit(1)
	}

	broker := host.NewBroker(host.DefaultQueueCapacity)
	player := host.NewPlayer(broker, vm.New(patch, *sampleRate))
	client := host.NewClient(broker, *sampleRate, logger)

	audioContext, err := oto.NewContext(*sampleRate, *latency)
	if err != nil {
		logger.Error("could not open audio device", "err", err)
		os.Exit(1)
	}
	output := audioContext.Play(player)
	defer output.Close()
	logger.Info("playing", "program", program.Name, "rate", *sampleRate, "latency", *latency)

	midiContext := gomidi.NewContext()
	defer midiContext.Close()
	if *midiIn != "" || len(midiContext.InputDevices()) > 0 {
		input := &gomidi.Input{Channel: *midiChannel, Sender: client}
		if err := midiContext.Open(*midiIn, input); err != nil {
			logger.Warn("no MIDI input", "err", err)
		} else {
			logger.Info("listening to MIDI", "devices", midiContext.InputDevices())
		}
	}

	if *listen != "" {
		l, err := net.Listen("tcp", *listen)
		if err != nil {
			logger.Error("could not listen", "addr", *listen, "err", err)
			os.Exit(1)
		}
		defer l.Close()
		go func() {
			if err := rpc.Serve(l, client); err != nil {
				logger.Debug("rpc server stopped", "err", err)
			}
		}()
		logger.Info("accepting events", "addr", l.Addr().String())
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			client.AllNotesOff()
			logger.Info("stopping")
			return
		case <-ticker.C:
			if err := output.Err(); err != nil {
				logger.Error("audio output failed", "err", err)
				return
			}
			// the player reports every buffer; only the latest is of interest
			var last host.MsgToHost
			got := false
			for {
				msg, ok := client.Status(0)
				if !ok {
					break
				}
				last, got = msg, true
			}
			if got {
				logger.Debug("status", "voices", last.ActiveVoices, "peakL", last.Peaks[0], "peakR", last.Peaks[1], "dropped", last.Dropped)
			}
		}
	}
}
