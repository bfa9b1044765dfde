// Command klex reads a grammar file and prints its computed DFA as a
// plain-text transition table. It is a minimal entry point, not an
// emitter: rendering the table into a target language's source file is
// a separate, external concern.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/klex/klex"
)

func main() {
	output := flag.String("o", "", "write the transition table to this file (default stdout)")
	flag.Parse()

	var in io.Reader = os.Stdin
	if args := flag.Args(); len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	out, warnings, err := klex.Generate(in, klex.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	w := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	dumpTable(w, out)
}

func dumpTable(w io.Writer, out *klex.Output) {
	fmt.Fprintf(w, "states %d alphabet %d start %d\n", len(out.DFA.States), out.DFA.AlphabetSize, out.DFA.Start)
	for i, row := range out.DFA.Trans {
		fmt.Fprintf(w, "%d:", i)
		for _, next := range row {
			fmt.Fprintf(w, " %d", next)
		}
		fmt.Fprintln(w)
	}
	codes := out.DFA.AnchorCodes()
	for i, accept := range out.Accept {
		if accept == nil {
			continue
		}
		fmt.Fprintf(w, "accept %d anchor=%d %q\n", i, codes[i], accept.Action)
	}
}
