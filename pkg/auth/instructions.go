package auth

import (
	"fmt"
	"io"
	"strings"
)

// AuthorizeURL is where W&B users find their API key
const AuthorizeURL = "https://wandb.ai/authorize"

// ShowAPIKeyGuide prints step-by-step instructions for obtaining an API key
func ShowAPIKeyGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "🔑 WEIGHTS & BIASES API KEY")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Publishing a dataset needs a W&B API key.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🌐 STEP 1: Log in to Weights & Biases")
	fmt.Fprintf(w, "   - Open %s in your browser\n", AuthorizeURL)
	fmt.Fprintln(w, "   - Sign in, or create a free account")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📋 STEP 2: Copy the key")
	fmt.Fprintln(w, "   - The page shows a 40-character key")
	fmt.Fprintln(w, "   - Copy it exactly, without spaces")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💾 STEP 3: Store it")
	fmt.Fprintln(w, "   - Run: imgscrape auth login [--profile NAME]")
	fmt.Fprintln(w, "   - Or export WANDB_API_KEY for a single shell or CI job")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(w, "   • The key grants write access to your W&B projects")
	fmt.Fprintln(w, "   • NEVER commit it to a repository")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)
}

// ShowQuickAPIKeyGuide shows a condensed version for experienced users
func ShowQuickAPIKeyGuide(w io.Writer) {
	fmt.Fprintf(w, "\n🔑 Quick Guide: %s → copy key → paste below (or export WANDB_API_KEY)\n", AuthorizeURL)
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
