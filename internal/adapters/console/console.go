package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/raulk/clock"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/phenrril/clientes/internal/adapters/export/xlsx"
	"github.com/phenrril/clientes/internal/domain"
	"github.com/phenrril/clientes/internal/usecase"
)

type Options struct {
	SearchDebounce time.Duration
	Clock          clock.Clock
	Logger         *zerolog.Logger
	// Watch prints a line every time the displayed list changes.
	Watch bool
}

// Console is a line-oriented front end: it shows the filtered list, hosts one
// customer form and asks for confirmation before deleting.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
	mu  sync.Mutex

	customers *usecase.CustomerUC
	search    *usecase.CustomerSearch
	form      *usecase.CustomerForm
	log       zerolog.Logger
	watch     bool
}

func New(in io.Reader, out io.Writer, uc *usecase.CustomerUC, opts Options) *Console {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	c := &Console{
		in:        bufio.NewScanner(in),
		out:       out,
		customers: uc,
		log:       logger,
		watch:     opts.Watch,
	}
	c.search = usecase.NewCustomerSearch(uc.Customers, usecase.SearchOptions{
		Debounce: opts.SearchDebounce,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
	})
	c.form = usecase.NewCustomerForm(uc.Customers, usecase.FormOptions{
		Logger: opts.Logger,
		Events: usecase.FormEvents{
			OnSaveSuccess: func() {
				c.printf("saved.\n")
				c.printList()
			},
			OnCancel: func() {
				c.printf("edit cancelled.\n")
				c.printList()
			},
			OnError: func(err error) {
				c.printf("operation failed: %v\n", err)
			},
		},
	})
	return c
}

// Run reads commands until quit or end of input. The list and the form are
// torn down before Run returns.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if c.watch {
		g.Go(func() error {
			c.watchViews(ctx)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return c.loop(ctx)
	})
	err := g.Wait()
	c.form.Close()
	c.search.Close()
	return err
}

func (c *Console) watchViews(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-c.search.Views():
			if !ok {
				return
			}
			c.printf("[%d customer(s) shown%s]\n", len(v.Customers), termSuffix(v.Term))
		}
	}
}

func (c *Console) loop(ctx context.Context) error {
	c.printf("customer directory, type 'help' for commands\n")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.printf("> ")
		line, ok := c.readLine()
		if !ok {
			return c.in.Err()
		}
		cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if cmd == "" {
			continue
		}
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := c.dispatch(ctx, strings.ToLower(cmd), rest); err != nil {
			c.printf("error: %v\n", err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, cmd, rest string) error {
	switch cmd {
	case "help":
		c.printf("%s", helpText)
	case "list":
		c.printList()
	case "search":
		c.search.Search(rest)
		c.printf("searching for %q\n", strings.TrimSpace(rest))
	case "new":
		if err := c.form.Load(nil); err != nil {
			return err
		}
		c.printForm()
	case "edit":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		rec, redirect, err := c.customers.ResolveForEdit(ctx, id)
		if err != nil {
			return err
		}
		if redirect {
			c.printf("customer %d not found, back to the list\n", id)
			c.printList()
			return nil
		}
		if err := c.form.Load(rec); err != nil {
			return err
		}
		c.printForm()
	case "set":
		name, value, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
		field, ok := domain.ParseField(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		return c.form.Set(field, value)
	case "active":
		b, err := strconv.ParseBool(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		return c.form.SetActive(b)
	case "touch":
		field, ok := domain.ParseField(strings.TrimSpace(rest))
		if !ok {
			return fmt.Errorf("unknown field %q", rest)
		}
		c.form.Touch(field)
		c.printErrors()
	case "form":
		c.printForm()
	case "errors":
		c.printErrors()
	case "submit":
		return c.submit(ctx)
	case "cancel":
		return c.form.Cancel()
	case "delete":
		return c.delete(ctx, rest)
	case "export":
		return c.export(ctx, strings.TrimSpace(rest))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (c *Console) submit(ctx context.Context) error {
	edit := c.form.IsEditMode()
	err := c.form.Submit(ctx)
	if errors.Is(err, domain.ErrValidation) {
		c.printf("please fix the highlighted fields:\n")
		c.printErrors()
		return nil
	}
	if err != nil {
		// already reported through OnError
		return nil
	}
	if edit {
		c.printf("customer updated.\n")
	} else {
		c.printf("customer created.\n")
	}
	return nil
}

func (c *Console) delete(ctx context.Context, rest string) error {
	id, err := parseID(rest)
	if err != nil {
		return err
	}
	target, ok := lo.Find(c.search.Current().Customers, func(s domain.CustomerSummary) bool { return s.ID == id })
	if !ok {
		return fmt.Errorf("customer %d is not in the displayed list", id)
	}
	deleted, err := c.customers.DeleteConfirmed(ctx, target, c.confirm)
	if err != nil {
		c.printf("delete failed: %v\n", err)
		return nil
	}
	if deleted {
		c.log.Info().Int("id", id).Msg("customer deleted")
		c.printf("customer %d deleted.\n", id)
	} else {
		c.printf("nothing deleted.\n")
	}
	return nil
}

func (c *Console) confirm(s domain.CustomerSummary) bool {
	c.printf("delete %s? this cannot be undone [y/N] ", s.FullName())
	line, ok := c.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *Console) export(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: export <file.xlsx>")
	}
	list, err := c.customers.List(ctx)
	if err != nil {
		return err
	}
	if err := xlsx.SaveCustomers(path, list); err != nil {
		return err
	}
	c.printf("exported %d customer(s) to %s\n", len(list), path)
	return nil
}

func (c *Console) printList() {
	v := c.search.Current()
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "customers%s:\n", termSuffix(v.Term))
	if len(v.Customers) == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return
	}
	for _, s := range v.Customers {
		status := "active"
		if !s.IsActive {
			status = "inactive"
		}
		phone := s.Phone
		if phone == "" {
			phone = "-"
		}
		fmt.Fprintf(c.out, "  #%-4d %-24s %-30s %-16s %s\n", s.ID, s.FullName(), s.Email, phone, status)
	}
}

func (c *Console) printForm() {
	v := c.form.Values()
	title := c.form.Title()
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s\n", title)
	for _, f := range domain.TextFields {
		fmt.Fprintf(c.out, "  %-10s %s\n", f.Label()+":", v.Get(f))
	}
	fmt.Fprintf(c.out, "  %-10s %t\n", domain.FieldIsActive.Label()+":", v.IsActive)
	c.mu.Unlock()
	c.printErrors()
}

func (c *Console) printErrors() {
	errs := c.form.VisibleErrors()
	if len(errs) == 0 {
		return
	}
	fields := lo.Keys(errs)
	sort.Slice(fields, func(i, j int) bool { return fieldOrder(fields[i]) < fieldOrder(fields[j]) })
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range fields {
		fmt.Fprintf(c.out, "  ! %s\n", errs[f].Message())
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid customer id %q", strings.TrimSpace(s))
	}
	return id, nil
}

func fieldOrder(f domain.Field) int {
	if i := lo.IndexOf(domain.TextFields, f); i >= 0 {
		return i
	}
	return len(domain.TextFields)
}

func termSuffix(term string) string {
	if term == "" {
		return ""
	}
	return fmt.Sprintf(" matching %q", term)
}

const helpText = `commands:
  list                      show the (filtered) customer list
  search <term>             filter the list, empty term clears the filter
  new                       start a new customer
  edit <id>                 edit an existing customer
  set <field> <value>       firstName, lastName, email, phone, isActive
  active <true|false>       toggle the active flag
  touch <field>             mark a field as visited
  form | errors             show the form or its visible errors
  submit | cancel           save or abandon the form
  delete <id>               delete a listed customer (asks for confirmation)
  export <file.xlsx>        write the directory to a spreadsheet
  quit
`
