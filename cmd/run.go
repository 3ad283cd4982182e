package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internify/internal/finder"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/listings"
	"github.com/spigell/internify/internal/logger"
	"github.com/spigell/internify/internal/matching"
	"github.com/spigell/internify/internal/saved"
	"github.com/spigell/internify/internal/scheduler"
	"github.com/spigell/internify/internal/session"
	"github.com/spigell/internify/internal/storage"
	"github.com/spigell/internify/internal/theme"
)

const (
	PromptSignIn   = "Sign in"
	PromptSignUp   = "Sign up"
	PromptQuit     = "Quit"
	PromptBack     = "back"
	PromptShowMore = "Show all matches"

	PromptListings        = "Show internships"
	PromptRecommendations = "Get recommendations"
	PromptMatches         = "Show my matches"
	PromptSaved           = "Saved internships"
	PromptToggleSave      = "Save / unsave an internship"
	PromptRefresh         = "Refresh internships"
	PromptTheme           = "Toggle theme"
	PromptSignOut         = "Sign out"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive internship finder",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("log-file", "", "write logs to this file instead of the terminal")
	viper.BindPFlag("log-file", runCmd.Flags().Lookup("log-file"))
}

// finderApp bundles what the interactive loop works with.
type finderApp struct {
	gate    *session.Gate
	finder  *finder.Finder
	store   storage.Store
	theme   theme.Theme
	fs      afero.Fs
	logger  *zap.Logger
	showAll bool
}

func run() {
	ctx := context.Background()

	logger, err := logger.NewToFile(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-file"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	logger.Info("starting internify", zap.String("version", version))

	store, closeStore, err := newStore(ctx, config.Storage, logger)
	if err != nil {
		log.Fatalf("opening storage: %s", err)
	}
	defer closeStore()

	provider, err := newAuthProvider(store, config.Auth, logger)
	if err != nil {
		log.Fatalf("building auth provider: %s", err)
	}

	gate := session.NewGate(provider, logger)
	gate.Start(ctx)
	defer gate.Close()

	gw, err := newGateway(ctx, config, logger)
	if err != nil {
		log.Fatalf("building gateway: %s", err)
	}

	current, err := theme.Load(ctx, store, theme.Theme(config.Theme))
	if err != nil {
		logger.Warn("loading theme", zap.Error(err))
	}

	f := finder.New(
		listings.New(store, gw, listings.Options{TTL: config.Listings.TTL, Logger: logger}),
		matching.New(gw, logger, config.Listings.Top),
		saved.New(store, logger),
		scheduler.New(logger),
		finder.Options{RefreshInterval: config.Listings.RefreshInterval, Logger: logger},
	)
	defer f.Close()

	a := &finderApp{
		gate:   gate,
		finder: f,
		store:  store,
		theme:  current,
		fs:     afero.NewOsFs(),
		logger: logger,
	}

	if err := a.loop(ctx); err != nil && !errors.Is(err, errExit) {
		log.Fatal(err)
	}
}

func (a *finderApp) loop(ctx context.Context) error {
	opened := false

	for {
		if !a.gate.Admitted() {
			if err := a.authenticate(ctx); err != nil {
				return err
			}
			continue
		}

		if warning := a.gate.Warning(); warning != "" && !opened {
			fmt.Println(warning)
		}

		if !opened {
			fmt.Println("Loading internship opportunities...")
			if err := a.finder.Open(ctx); err != nil {
				return fmt.Errorf("open finder: %w", err)
			}
			opened = true
			a.printListings()
		}

		if err := a.menu(ctx); err != nil {
			return err
		}
	}
}

func (a *finderApp) authenticate(ctx context.Context) error {
	choice := promptui.Select{
		Label: "Welcome to internify",
		Items: []string{PromptSignIn, PromptSignUp, PromptQuit},
	}

	_, action, err := choice.Run()
	if err != nil {
		return promptError(err)
	}
	if action == PromptQuit {
		return errExit
	}

	email, err := (&promptui.Prompt{Label: "Email"}).Run()
	if err != nil {
		return promptError(err)
	}
	password, err := (&promptui.Prompt{Label: "Password", Mask: '*'}).Run()
	if err != nil {
		return promptError(err)
	}

	switch action {
	case PromptSignIn:
		if err := a.gate.SignIn(ctx, email, password); err != nil {
			fmt.Println(err)
		}
	case PromptSignUp:
		message, err := a.gate.SignUp(ctx, email, password)
		if err != nil {
			fmt.Println(err)
		} else if message != "" {
			fmt.Println(message)
		}
	}

	return nil
}

func (a *finderApp) menu(ctx context.Context) error {
	items := []string{PromptListings, PromptRecommendations}
	if a.finder.Matched() != nil {
		items = append(items, PromptMatches)
	}
	items = append(items, PromptSaved, PromptToggleSave, PromptRefresh, PromptTheme)
	if a.gate.State() == session.Authenticated {
		items = append(items, PromptSignOut)
	}
	items = append(items, PromptQuit)

	label := "What next?"
	if s := a.gate.Session(); s != nil {
		label = fmt.Sprintf("Signed in as %s. What next?", s.Email)
	}

	_, action, err := (&promptui.Select{Label: label, Items: items, Size: len(items)}).Run()
	if err != nil {
		return promptError(err)
	}

	return a.handleAction(ctx, action)
}

func (a *finderApp) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptListings:
		a.printListings()
	case PromptRecommendations:
		return a.recommend(ctx)
	case PromptMatches:
		return a.showMatches()
	case PromptSaved:
		renderCards(os.Stdout, paletteFor(a.theme), a.finder.View().Saved, nil)
	case PromptToggleSave:
		return a.toggleSave(ctx)
	case PromptRefresh:
		fmt.Println("Refreshing internship opportunities...")
		if err := a.finder.Refresh(ctx); err != nil {
			a.logger.Warn("refresh failed", zap.Error(err))
		}
		a.printListings()
	case PromptTheme:
		a.theme = a.theme.Toggle()
		if err := theme.Save(ctx, a.store, a.theme); err != nil {
			a.logger.Warn("saving theme", zap.Error(err))
		}
		fmt.Println(paletteFor(a.theme).title(fmt.Sprintf("Theme: %s", a.theme)))
	case PromptSignOut:
		if err := a.gate.SignOut(ctx); err != nil {
			fmt.Println(err)
		}
	case PromptQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func (a *finderApp) printListings() {
	view := a.finder.View()
	if view.Error != "" && len(view.Listings) == 0 {
		fmt.Println(view.Error)
		return
	}

	fmt.Println(paletteFor(a.theme).title(fmt.Sprintf("%d internship opportunities", len(view.Listings))))
	renderCards(os.Stdout, paletteFor(a.theme), view.Listings, a.finder.IsSaved)
}

func (a *finderApp) recommend(ctx context.Context) error {
	profile, err := a.askProfile()
	if err != nil {
		return err
	}

	a.showAll = false
	fmt.Println("Finding your best matches...")
	if err := a.finder.Submit(ctx, profile); err != nil {
		a.logger.Info("submission failed", zap.Error(err))
	}

	return a.showMatches()
}

func (a *finderApp) showMatches() error {
	view := a.finder.View()
	p := paletteFor(a.theme)

	if a.showAll && view.Matched != nil {
		renderCards(os.Stdout, p, view.Matched, a.finder.IsSaved)
		return nil
	}

	renderMatches(os.Stdout, p, view, a.finder.IsSaved)
	if view.Remaining == 0 || view.Error != "" {
		return nil
	}

	_, choice, err := (&promptui.Select{Label: "More", Items: []string{PromptShowMore, PromptBack}}).Run()
	if err != nil {
		return promptError(err)
	}
	if choice == PromptShowMore {
		a.showAll = true
		renderCards(os.Stdout, p, view.Matched, a.finder.IsSaved)
	}

	return nil
}

type profileField struct {
	label string
	dest  *string
}

func (a *finderApp) askProfile() (*internship.UserProfile, error) {
	required := func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New("required")
		}
		return nil
	}

	profile := &internship.UserProfile{}
	fields := []profileField{
		{"Full name", &profile.FullName},
		{"Email", &profile.Email},
		{"Field of study", &profile.FieldOfStudy},
		{"Skills (comma separated)", &profile.Skills},
	}

	for _, field := range fields {
		value, err := (&promptui.Prompt{Label: field.label, Validate: required}).Run()
		if err != nil {
			return nil, promptError(err)
		}
		*field.dest = value
	}

	path, err := (&promptui.Prompt{Label: "Resume file (PDF)", Validate: required}).Run()
	if err != nil {
		return nil, promptError(err)
	}

	doc, err := readResume(a.fs, strings.TrimSpace(path))
	if err != nil {
		fmt.Println(err)
		return profile, nil
	}
	profile.ResumeFile = doc

	return profile, nil
}

func readResume(fs afero.Fs, path string) (*internship.Document, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	return internship.EncodeDocument(raw, path)
}

func (a *finderApp) toggleSave(ctx context.Context) error {
	view := a.finder.View()

	candidates := view.Listings
	if view.Matched != nil {
		candidates = view.Matched
	}
	if len(candidates) == 0 {
		candidates = view.Saved
	}
	if len(candidates) == 0 {
		fmt.Println("Nothing to save yet.")
		return nil
	}

	labels := make([]string, 0, len(candidates)+1)
	for _, item := range candidates {
		labels = append(labels, itemLabel(item, a.finder.IsSaved(item)))
	}

	idx, choice, err := (&promptui.Select{
		Label: "Choose an internship and press ENTER",
		Items: append(labels, PromptBack),
	}).Run()
	if err != nil {
		return promptError(err)
	}
	if choice == PromptBack {
		return nil
	}

	item := candidates[idx]
	if a.finder.ToggleSave(ctx, item) {
		fmt.Printf("Saved %s at %s.\n", item.Role, item.Company)
	} else {
		fmt.Printf("Removed %s at %s.\n", item.Role, item.Company)
	}

	return nil
}

// promptError turns a prompt abort into an exit request.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return errExit
	}
	return err
}
