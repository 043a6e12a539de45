package cli

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/di/providers"
	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/service"
	"github.com/rutapp/rut-server/internal/store"
)

// SeedOptions controls a seed run.
type SeedOptions struct {
	Users    int
	Prefix   string
	Password string
	Seed     uint64
}

// SeedResult counts what a seed run created. Existing rows are reused and
// not counted.
type SeedResult struct {
	Users    int      `json:"users"`
	Items    int      `json:"items"`
	Ruts     int      `json:"ruts"`
	Collects int      `json:"collects"`
	Tags     int      `json:"tags"`
	Stars    int      `json:"stars"`
	Skipped  []string `json:"skipped,omitempty"`
}

var seedCatalog = []service.ItemInput{
	{Title: "The Mythical Man-Month", UIID: "9780201835953", Authors: "Frederick P. Brooks Jr.", Publisher: "Addison-Wesley", PubAt: "1995", Category: "Book", Cover: "https://covers.example.org/9780201835953.jpg"},
	{Title: "Structure and Interpretation of Computer Programs", UIID: "9780262510875", Authors: "Harold Abelson, Gerald Jay Sussman", Publisher: "MIT Press", PubAt: "1996", Category: "Book", Cover: "https://covers.example.org/9780262510875.jpg"},
	{Title: "The Go Programming Language", UIID: "9780134190440", Authors: "Alan A. A. Donovan, Brian W. Kernighan", Publisher: "Addison-Wesley", PubAt: "2015", Category: "Book", Cover: "https://covers.example.org/9780134190440.jpg"},
	{Title: "Designing Data-Intensive Applications", UIID: "9781449373320", Authors: "Martin Kleppmann", Publisher: "O'Reilly", PubAt: "2017", Category: "Book", Cover: "https://covers.example.org/9781449373320.jpg"},
	{Title: "A Philosophy of Software Design", UIID: "9781732102200", Authors: "John Ousterhout", Publisher: "Yaknyam Press", PubAt: "2018", Category: "Book"},
	{Title: "The Pragmatic Programmer", UIID: "9780135957059", Authors: "David Thomas, Andrew Hunt", Publisher: "Addison-Wesley", PubAt: "2019", Category: "Book", Cover: "https://covers.example.org/9780135957059.jpg"},
	{Title: "Go Proverbs", URL: "https://go-proverbs.github.io/", Authors: "Rob Pike", Category: "Article"},
	{Title: "Simple Made Easy", URL: "https://www.infoq.com/presentations/Simple-Made-Easy/", Authors: "Rich Hickey", PubAt: "2011", Category: "Video"},
}

var seedTags = []string{"software", "classics", "go", "distributed systems", "design", "lisp", "craft"}

var seedFlags = []string{string(domain.FlagTodo), string(domain.FlagDoing), string(domain.FlagDone)}

// Seeder fills a store with demo users, items and ruts through the services,
// so every counter is maintained the same way the API maintains it.
type Seeder struct {
	Store    store.Store
	Users    *service.UserService
	Items    *service.ItemService
	Ruts     *service.RutService
	Collects *service.CollectService
	Tags     *service.TagService
	Stars    *service.StarService
}

// Run seeds opts.Users demo users. Running it twice is safe: existing users
// and items are reused, and repeated stars or collects are skipped.
func (s *Seeder) Run(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	res := &SeedResult{}

	users := make([]domain.Principal, 0, opts.Users)
	for n := 1; n <= opts.Users; n++ {
		p, err := s.user(ctx, fmt.Sprintf("%s%d", opts.Prefix, n), opts.Password, res)
		if err != nil {
			return res, err
		}
		users = append(users, p)
	}
	if len(users) == 0 {
		return res, nil
	}

	items := make([]*domain.Item, 0, len(seedCatalog))
	for i, in := range seedCatalog {
		item, err := s.item(ctx, users[i%len(users)], in, res)
		if err != nil {
			return res, err
		}
		items = append(items, item)
	}

	var ruts []*domain.Rut
	for _, p := range users {
		rut, err := s.Ruts.Create(ctx, p, service.RutInput{
			Title:   p.UName + "'s shelf",
			Content: "A few things worth the time.",
		})
		if err != nil {
			return res, fmt.Errorf("create rut for %s: %w", p.UName, err)
		}
		res.Ruts++
		ruts = append(ruts, rut)

		picks := rng.Perm(len(items))[:3+rng.IntN(3)]
		for _, idx := range picks {
			if _, err := s.Collects.Collect(ctx, p, rut.ID, service.CollectInput{
				ItemID:  items[idx].ID,
				Content: "Read it twice.",
			}); err != nil {
				return res, fmt.Errorf("collect %s: %w", items[idx].ID, err)
			}
			res.Collects++
		}

		names := []string{seedTags[rng.IntN(len(seedTags))], seedTags[rng.IntN(len(seedTags))]}
		report, err := s.Tags.TagRut(ctx, p, rut.ID, names)
		if err != nil {
			return res, fmt.Errorf("tag rut %s: %w", rut.ID, err)
		}
		res.Tags += len(report.Done)

		for _, idx := range rng.Perm(len(items))[:2] {
			flag := seedFlags[rng.IntN(len(seedFlags))]
			if err := s.star(res, "item "+items[idx].ID, func() error {
				_, err := s.Stars.StarItem(ctx, p, items[idx].ID, service.StarItemInput{Flag: flag})
				return err
			}); err != nil {
				return res, err
			}
		}
	}

	// Everyone stars the next user's rut.
	for i, p := range users {
		if len(ruts) < 2 {
			break
		}
		rut := ruts[(i+1)%len(ruts)]
		if err := s.star(res, "rut "+rut.ID, func() error {
			_, err := s.Stars.StarRut(ctx, p, rut.ID, service.StarNote{Note: "nice picks"})
			return err
		}); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (s *Seeder) user(ctx context.Context, uname, password string, res *SeedResult) (domain.Principal, error) {
	resp, err := s.Users.Signup(ctx, service.SignupRequest{UName: uname, Password: password, Confirm: password})
	if err == nil {
		res.Users++
		return domain.Principal{UserID: resp.User.ID, UName: resp.User.UName}, nil
	}
	if !domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
		return domain.Principal{}, fmt.Errorf("signup %s: %w", uname, err)
	}

	existing, err := s.Store.GetUserByUName(ctx, uname)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("lookup %s: %w", uname, err)
	}
	res.Skipped = append(res.Skipped, "user "+uname+" exists")
	return domain.Principal{UserID: existing.ID, UName: existing.UName}, nil
}

func (s *Seeder) item(ctx context.Context, p domain.Principal, in service.ItemInput, res *SeedResult) (*domain.Item, error) {
	item, err := s.Items.Submit(ctx, p, in)
	if err == nil {
		res.Items++
		return item, nil
	}

	var derr *domainerrors.Error
	if domainerrors.As(err, &derr) && derr.Code == domainerrors.CodeAlreadyExists {
		if existing, ok := derr.Details.(*domain.Item); ok {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("submit %q: %w", in.Title, err)
}

// star runs fn and counts it, treating a repeated star as skipped.
func (s *Seeder) star(res *SeedResult, what string, fn func() error) error {
	err := fn()
	switch {
	case err == nil:
		res.Stars++
		return nil
	case domainerrors.Is(err, domainerrors.ErrConflict):
		res.Skipped = append(res.Skipped, what+" already starred")
		return nil
	default:
		return fmt.Errorf("star %s: %w", what, err)
	}
}

func newSeeder(injector do.Injector) (*Seeder, error) {
	st, err := invoke[*providers.StoreHandle](injector)
	if err != nil {
		return nil, err
	}
	seeder := &Seeder{Store: st.Store}
	if seeder.Users, err = invoke[*service.UserService](injector); err != nil {
		return nil, err
	}
	if seeder.Items, err = invoke[*service.ItemService](injector); err != nil {
		return nil, err
	}
	if seeder.Ruts, err = invoke[*service.RutService](injector); err != nil {
		return nil, err
	}
	if seeder.Collects, err = invoke[*service.CollectService](injector); err != nil {
		return nil, err
	}
	if seeder.Tags, err = invoke[*service.TagService](injector); err != nil {
		return nil, err
	}
	if seeder.Stars, err = invoke[*service.StarService](injector); err != nil {
		return nil, err
	}
	return seeder, nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users, items, ruts, tags and stars",
		Long: `Create demo data through the same services the API uses.

Users are named <prefix>1..<prefix>N and share one password. Each user gets a
rut with a few collected items, two tags and a couple of item stars, and stars
the next user's rut.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Users < 0 {
				return NewExitError(ExitCommandError, "--users must not be negative")
			}

			injector, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(injector)

			seeder, err := newSeeder(injector)
			if err != nil {
				return err
			}

			result, err := seeder.Run(cmd.Context(), opts)
			if err != nil {
				return WrapExitError(ExitFailure, "seed", err)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return RenderSeed(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&opts.Users, "users", 3, "number of demo users")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "demo", "uname prefix for demo users")
	cmd.Flags().StringVar(&opts.Password, "password", "rut-demo-pass", "password for every demo user")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed for picks and flags")

	return cmd
}
