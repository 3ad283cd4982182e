package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/internify/internal/finder"
	"github.com/spigell/internify/internal/internship"
	"github.com/spigell/internify/internal/theme"
)

// palette colours terminal output for a theme.
type palette struct {
	title  func(any) string
	accent func(any) string
	muted  func(any) string
}

func paletteFor(t theme.Theme) palette {
	if t == theme.Dark {
		return palette{
			title:  promptui.Styler(promptui.FGCyan, promptui.FGBold),
			accent: promptui.Styler(promptui.FGGreen),
			muted:  promptui.Styler(promptui.FGFaint),
		}
	}

	return palette{
		title:  promptui.Styler(promptui.FGBlue, promptui.FGBold),
		accent: promptui.Styler(promptui.FGMagenta),
		muted:  promptui.Styler(promptui.FGFaint),
	}
}

// plain disables colours. Used for non-interactive output.
var plain = palette{title: sprint, accent: sprint, muted: sprint}

func sprint(v any) string {
	return fmt.Sprint(v)
}

func renderListings(w io.Writer, items []internship.Internship) {
	renderCards(w, plain, items, nil)
}

func renderCards(w io.Writer, p palette, items []internship.Internship, isSaved func(internship.Internship) bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, p.muted("No internships to show."))
		return
	}

	for idx, item := range items {
		fmt.Fprintln(w, cardTitle(p, idx+1, item, isSaved))
		fmt.Fprintf(w, "   %s | %s\n", item.Field, item.Location)
		if len(item.SkillsRequired) > 0 {
			fmt.Fprintf(w, "   Skills: %s\n", strings.Join(item.SkillsRequired, ", "))
		}
		if item.Description != "" {
			fmt.Fprintf(w, "   %s\n", p.muted(item.Description))
		}
		if item.Reasoning != "" {
			fmt.Fprintf(w, "   Why: %s\n", item.Reasoning)
		}
	}
}

func cardTitle(p palette, n int, item internship.Internship, isSaved func(internship.Internship) bool) string {
	title := fmt.Sprintf("%2d. %s at %s", n, item.Role, item.Company)
	if item.Scored() {
		title += " " + p.accent(fmt.Sprintf("[%d%% match]", item.Score()))
	}
	if isSaved != nil && isSaved(item) {
		title += " " + p.accent("(saved)")
	}
	return p.title(title)
}

// renderMatches prints the top results and a hint about the rest.
func renderMatches(w io.Writer, p palette, view finder.View, isSaved func(internship.Internship) bool) {
	switch {
	case view.Error != "":
		fmt.Fprintln(w, view.Error)
	case view.Matched == nil:
		fmt.Fprintln(w, p.muted("Submit your profile to get recommendations."))
	case view.NoRecommendations():
		fmt.Fprintln(w, "No recommendations matched your profile.")
	default:
		renderCards(w, p, view.Top, isSaved)
		if view.Remaining > 0 {
			fmt.Fprintln(w, p.muted(fmt.Sprintf("Showing %d of %d matches.", len(view.Top), len(view.Matched))))
		}
	}
}

// itemLabel is the single-line form used in selection prompts.
func itemLabel(item internship.Internship, saved bool) string {
	label := fmt.Sprintf("%s at %s", item.Role, item.Company)
	if item.Scored() {
		label += fmt.Sprintf(" (%d%%)", item.Score())
	}
	if saved {
		label += " *"
	}
	return label
}
