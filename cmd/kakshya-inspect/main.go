// Command kakshya-inspect wires a container, a processing chain, and an
// access processor together and prints each processing-state transition,
// as a small end-to-end smoke test of the substrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/MayaFlux/MayaFlux-sub001/chain"
	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/processor"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

func main() {
	samples := flag.Int("samples", 512, "number of samples in the demo audio container")
	cycles := flag.Int("cycles", 4, "number of chain.Process cycles to run")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kakshya-inspect [options]\n\nBuilds a mono audio container, attaches a contiguous access processor,\nand runs it through a processing chain for -cycles steps, printing every\nstate transition.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*samples, *cycles); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(samples, cycles int) error {
	s, err := structure.NewAudioMono(samples)
	if err != nil {
		return err
	}
	c := container.NewSoundStreamContainer(s, variant.KindFloat64, 44100)

	c.RegisterStateChangeCallback(func(old, new container.ProcessingState) {
		fmt.Printf("state: %s -> %s\n", old, new)
	})

	if err := c.UpdateProcessingState(container.Ready); err != nil {
		return err
	}

	ch := chain.New()
	acp := processor.NewContiguousAccessProcessor()
	if err := ch.Add(c, acp, "demo"); err != nil {
		return err
	}

	for i := 0; i < cycles; i++ {
		if err := ch.Process(c); err != nil {
			return err
		}
		fmt.Printf("cycle %d: read position %v, processed elements %d\n", i, c.GetReadPosition(), sumLen(c.GetProcessedData()))
	}
	return nil
}

func sumLen(data []variant.DataVariant) int {
	total := 0
	for _, d := range data {
		total += d.Len()
	}
	return total
}
