package app

import (
	"errors"
	"io"
	"math/rand/v2"
	"time"

	"github.com/raulk/clock"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/clientes/internal/adapters/console"
	"github.com/phenrril/clientes/internal/adapters/repo/memory"
	"github.com/phenrril/clientes/internal/domain"
	"github.com/phenrril/clientes/internal/usecase"
)

var errSimulated = errors.New("simulated backend failure")

type App struct {
	Args       Args
	Clock      clock.Clock
	Customers  *memory.CustomerRepo
	CustomerUC *usecase.CustomerUC
	Logger     zerolog.Logger
}

func NewApp(args Args) (*App, error) {
	if err := args.Valid(); err != nil {
		return nil, err
	}
	logger := zlog.Logger
	clk := clock.New()

	var seed []domain.Customer
	if !args.NoSeed {
		seed = seedCustomers()
	}
	storeLog := logger.With().Str("component", "store").Logger()
	custRepo := memory.NewCustomerRepo(seed, memory.Options{
		Clock:  clk,
		Delay:  memory.FixedDelay(clk, args.Latency),
		Faults: faults(args.FaultRate),
		Logger: &storeLog,
	})

	app := &App{}
	app.Args = args
	app.Clock = clk
	app.Customers = custRepo
	app.CustomerUC = &usecase.CustomerUC{Customers: custRepo}
	app.Logger = logger
	app.Logger.Info().
		Int("customers", len(seed)).
		Dur("latency", args.Latency).
		Float64("fault_rate", args.FaultRate).
		Msg("directory ready")
	return app, nil
}

// Console builds a front end bound to the shared store. Each console owns its
// own search and form.
func (a *App) Console(in io.Reader, out io.Writer) *console.Console {
	uiLog := a.Logger.With().Str("component", "console").Logger()
	return console.New(in, out, a.CustomerUC, console.Options{
		SearchDebounce: a.Args.Debounce,
		Clock:          a.Clock,
		Logger:         &uiLog,
		Watch:          a.Args.Watch,
	})
}

func (a *App) Close() {
	a.Customers.Close()
}

func faults(rate float64) memory.FaultFunc {
	if rate <= 0 {
		return nil
	}
	return func(op string) error {
		if rand.Float64() < rate {
			return errSimulated
		}
		return nil
	}
}

func seedCustomers() []domain.Customer {
	return []domain.Customer{
		{
			ID:        1,
			FirstName: "Jean",
			LastName:  "Dupont",
			Email:     "jean.dupont@email.com",
			Phone:     "0123456789",
			IsActive:  true,
			CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}
