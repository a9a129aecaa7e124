// Package browse is a line-oriented terminal front-end over the search
// and detail controllers.
package browse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/Astemirdum/bookstore/bookstore/internal/controller"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"go.uber.org/zap"
)

// Help lists the commands accepted at the list prompt.
const Help = `commands:
  top              bestsellers
  s <keyword>      search (an empty keyword is sent as is)
  h                show search history
  hide             hide search history
  rm <keyword>     delete a keyword from history
  open <n>         open book n of the list
  help             this text
  q                quit`

const detailHelp = `commands:
  w <text>         save review, replacing the previous one
  b                back to the list`

type Browser struct {
	in   *bufio.Scanner
	term *terminal
	deps controller.Deps
	log  *zap.Logger
}

func New(in io.Reader, out io.Writer, deps controller.Deps, log *zap.Logger) *Browser {
	return &Browser{
		in:   bufio.NewScanner(in),
		term: &terminal{out: out},
		deps: deps,
		log:  log,
	}
}

// Run reads commands until "q" or end of input.
func (b *Browser) Run(ctx context.Context) error {
	session := controller.NewSearchSession(ctx, b.deps, searchScreen{b.term}, b.log)
	defer session.Close()

	session.Start()
	session.Wait()
	for b.prompt("> ") {
		cmd, arg := splitCommand(b.in.Text())
		switch cmd {
		case "":
		case "help", "?":
			b.term.println(Help)
		case "top":
			session.Start()
		case "s", "search":
			session.Submit(arg)
		case "h", "history":
			session.FocusSearch()
		case "hide":
			session.HideHistory()
		case "rm":
			session.DeleteHistory(arg)
		case "open", "o":
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			book, ok := session.Book(n - 1)
			if err != nil || !ok {
				b.term.printf("no book %q in the list\n", arg)
				continue
			}
			if err := b.detail(ctx, book); err != nil {
				return err
			}
		case "q", "quit", "exit":
			return nil
		default:
			b.term.printf("unknown command %q, try help\n", cmd)
		}
		session.Wait()
	}
	return b.in.Err()
}

func (b *Browser) detail(ctx context.Context, book model.Book) error {
	d := controller.OpenBookDetail(ctx, book, b.deps, detailScreen{b.term}, b.log)
	defer d.Close()

	d.Wait()
	for b.prompt(book.Title + "> ") {
		cmd, arg := splitCommand(b.in.Text())
		switch cmd {
		case "":
		case "w", "save":
			d.Save(arg)
		case "b", "back", "q":
			return nil
		default:
			b.term.println(detailHelp)
		}
		d.Wait()
	}
	return b.in.Err()
}

func (b *Browser) prompt(p string) bool {
	b.term.printf("%s", p)
	return b.in.Scan()
}

// splitCommand cuts at the first space and keeps the argument verbatim.
func splitCommand(line string) (string, string) {
	line = strings.TrimRight(line, "\r")
	cmd, arg, _ := strings.Cut(line, " ")
	return cmd, arg
}

type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) println(s string) {
	t.printf("%s\n", s)
}

type searchScreen struct {
	*terminal
}

func (s searchScreen) ShowBooks(books []model.Book) {
	if len(books) == 0 {
		s.println("no books")
		return
	}
	var sb strings.Builder
	for i, book := range books {
		fmt.Fprintf(&sb, "%3d. %s\n", i+1, book.Title)
	}
	s.printf("%s", sb.String())
}

func (s searchScreen) SetHistoryVisible(visible bool) {
	if visible {
		s.println("history:")
	}
}

func (s searchScreen) ShowHistory(entries []model.HistoryEntry) {
	if len(entries) == 0 {
		s.println("  (empty)")
		return
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "  - %s\n", e.Keyword)
	}
	s.printf("%s", sb.String())
}

func (s searchScreen) ShowError(err error) {
	s.printf("error: %v\n", err)
}

type detailScreen struct {
	*terminal
}

func (d detailScreen) ShowBook(book model.Book) {
	d.printf("%s\n%s\ncover: %s\n", book.Title, book.Description, book.CoverSmallURL)
}

func (d detailScreen) ShowReview(text string) {
	if text == "" {
		d.println("review: (none)")
		return
	}
	d.printf("review: %s\n", text)
}

func (d detailScreen) ReviewSaved() {
	d.println("review saved")
}

func (d detailScreen) ShowError(err error) {
	d.printf("error: %v\n", err)
}
