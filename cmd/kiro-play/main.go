package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirosynth/kiro"
	"github.com/kirosynth/kiro/oto"
	"github.com/kirosynth/kiro/version"
	"github.com/kirosynth/kiro/vm"
)

// bufferSource plays a rendered buffer once and then outputs silence.
type bufferSource struct {
	buffer kiro.AudioBuffer
	pos    int
	done   chan struct{}
}

func (s *bufferSource) Process(out kiro.AudioBuffer) {
	n := copy(out, s.buffer[s.pos:])
	clear(out[n:])
	s.pos += n
	if s.pos == len(s.buffer) && s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the working directory.")
	play := flag.Bool("p", false, "Play the input songs (default behaviour when no other output is defined).")
	rawOut := flag.Bool("r", false, "Output the rendered song as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered song as .wav file. By default, saves stereo float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	var audioContext *oto.Context
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				_, err := os.Stdout.Write(contents)
				return err
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		inputBytes, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		var song kiro.Song
		if errJSON := json.Unmarshal(inputBytes, &song); errJSON != nil {
			song = kiro.Song{}
			if errYaml := yaml.Unmarshal(inputBytes, &song); errYaml != nil {
				return fmt.Errorf("the song could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
			}
		}
		buffer, err := kiro.Play(vm.Synther{}, song)
		if err != nil {
			return fmt.Errorf("kiro.Play failed: %v", err)
		}
		if *rawOut {
			raw, err := buffer.Raw(*pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %v", err)
			}
			if err := output(".raw", raw); err != nil {
				return fmt.Errorf("error outputting .raw file: %v", err)
			}
		}
		if *wavOut {
			wav, err := buffer.Wav(song.SampleRate, *pcm)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %v", err)
			}
			if err := output(".wav", wav); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		if *play {
			if audioContext == nil {
				// the device can be opened only once, so all songs play at
				// the rate of the first one
				audioContext, err = oto.NewContext(song.SampleRate, oto.DefaultBufferSize)
				if err != nil {
					return fmt.Errorf("could not acquire oto AudioContext: %v", err)
				}
			} else if audioContext.SampleRate() != song.SampleRate {
				return fmt.Errorf("cannot play at %v Hz, the audio device is open at %v Hz", song.SampleRate, audioContext.SampleRate())
			}
			done := make(chan struct{})
			out := audioContext.Play(&bufferSource{buffer: buffer, done: done})
			<-done
			time.Sleep(2 * oto.DefaultBufferSize)
			if err := out.Close(); err != nil {
				return err
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for json files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files := append(ymlfiles, jsonfiles...)
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Kiro command line utility for rendering and playing .yml/.json song files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
