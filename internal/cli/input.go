// Package cli is the interactive terminal mode, handy for trying word lists and debugging searches.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bastiangx/anagramserve/internal/utils"
	"github.com/bastiangx/anagramserve/pkg/anagram"
	"github.com/bastiangx/anagramserve/pkg/dictionary"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	wordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// InputHandler reads lines from the user and prints their anagrams.
// Lines starting with ':' are commands, see help.
type InputHandler struct {
	engine      anagram.AnagramEngine
	dicts       *dictionary.Cache
	language    string
	limit       int
	showTimings bool
	in          io.Reader
	out         io.Writer
}

// NewInputHandler creates a handler reading from in and printing to out.
func NewInputHandler(engine anagram.AnagramEngine, dicts *dictionary.Cache, language string, limit int, showTimings bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		engine:      engine,
		dicts:       dicts,
		language:    language,
		limit:       limit,
		showTimings: showTimings,
		in:          in,
		out:         out,
	}
}

// logInputLen caps how much of a user line ends up in debug logs.
const logInputLen = 32

const help = `:lang <code>   switch dictionary
:limit <n>     show at most n results, 0 for all
:info          dictionary stats
:lookup <word> single word anagrams
:quit          exit`

// Start runs the prompt loop until the input ends or the user quits.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, headerStyle.Render("anagramserve CLI"))
	fmt.Fprintln(h.out, dimStyle.Render("type some text and press Enter, :help for commands"))

	if _, err := h.dicts.Ensure(ctx, h.language); err != nil {
		log.Warnf("Dictionary %q unavailable: %v", h.language, err)
	}

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, h.language+"> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}
		h.handleInput(ctx, line)
	}
}

// handleCommand runs a ':' command and reports whether the loop should stop.
func (h *InputHandler) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "q", "quit", "exit":
		return true
	case "help", "h":
		fmt.Fprintln(h.out, dimStyle.Render(help))
	case "lang":
		if arg == "" {
			h.printError(fmt.Errorf("usage: :lang <code>"))
			return false
		}
		d, err := h.dicts.Ensure(ctx, arg)
		if err != nil {
			h.printError(err)
			return false
		}
		h.language = arg
		fmt.Fprintf(h.out, "Using %q, %s words\n", arg, utils.FormatWithCommas(d.Len()))
	case "limit":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			h.printError(fmt.Errorf("usage: :limit <n>"))
			return false
		}
		h.limit = n
	case "info":
		d, ok := h.dicts.Get(h.language)
		if !ok {
			h.printError(fmt.Errorf("%q is not loaded", h.language))
			return false
		}
		h.printStats(d.Stats(), d.Lengths())
	case "lookup":
		d, err := h.dicts.Ensure(ctx, h.language)
		if err != nil {
			h.printError(err)
			return false
		}
		words := d.Anagrams(arg)
		if len(words) == 0 {
			fmt.Fprintln(h.out, dimStyle.Render("no single word anagrams"))
			return false
		}
		fmt.Fprintln(h.out, wordStyle.Render(strings.Join(words, ", ")))
	default:
		h.printError(fmt.Errorf("unknown command %q, try :help", cmd))
	}
	return false
}

// handleInput searches one line and prints the ranked results.
func (h *InputHandler) handleInput(ctx context.Context, text string) {
	d, err := h.dicts.Ensure(ctx, h.language)
	if err != nil {
		h.printError(err)
		return
	}

	res, err := h.engine.Search(d, text)
	if err != nil {
		h.printError(err)
		return
	}
	log.Debugf("Took [ %v ] for %q", res.Elapsed, utils.Truncate(text, logInputLen))

	if len(res.Anagrams) == 0 {
		fmt.Fprintln(h.out, dimStyle.Render(fmt.Sprintf("No anagrams for '%s'", text)))
		return
	}

	shown := res.Anagrams
	if h.limit > 0 && len(shown) > h.limit {
		shown = shown[:h.limit]
	}

	summary := fmt.Sprintf("Found %s anagrams for '%s'", utils.FormatWithCommas(len(res.Anagrams)), text)
	if h.showTimings {
		summary += fmt.Sprintf(" in %v", res.Elapsed)
		if res.Cached {
			summary += " (cached)"
		}
	}
	fmt.Fprintln(h.out, headerStyle.Render(summary))

	width := len(strconv.Itoa(len(shown)))
	for i, words := range shown {
		fmt.Fprintf(h.out, "%*d. %s\n", width, i+1, wordStyle.Render(strings.Join(words, " ")))
	}
	if len(shown) < len(res.Anagrams) {
		fmt.Fprintln(h.out, dimStyle.Render(fmt.Sprintf("... %d more", len(res.Anagrams)-len(shown))))
	}
}

func (h *InputHandler) printStats(stats dictionary.Stats, lengths []int) {
	fmt.Fprintln(h.out, headerStyle.Render(fmt.Sprintf("%s: %s words", stats.Language, utils.FormatWithCommas(stats.Words))))
	for _, n := range lengths {
		fmt.Fprintf(h.out, "  %2d letters  %s\n", n, utils.FormatWithCommas(stats.Buckets[n]))
	}
}

func (h *InputHandler) printError(err error) {
	fmt.Fprintln(h.out, errStyle.Render(err.Error()))
}
