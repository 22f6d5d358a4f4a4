package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/display"
	"github.com/smokyabdulrahman/namaz/internal/quran"
)

// newQuranClient is swapped by tests.
var newQuranClient = quran.NewClient

var flagTranslation bool

func newQuranCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quran <chapter>",
		Short: "Read a surah",
		Long:  fmt.Sprintf("Print a surah's verses with the English translation, and its recitation URL.\nChapters are numbered 1-%d.", quran.Chapters),
		Args:  cobra.ExactArgs(1),
		RunE:  runQuran,
	}
	cmd.Flags().BoolVar(&flagTranslation, "translation", true, "Include the English translation")
	return cmd
}

type quranJSON struct {
	Chapter  *quran.Chapter `json:"chapter"`
	AudioURL string         `json:"audio_url"`
	Verses   []quran.Verse  `json:"verses"`
}

func runQuran(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || !quran.ValidChapter(id) {
		return fmt.Errorf("invalid chapter %q: must be 1-%d", args[0], quran.Chapters)
	}

	ctx := cmd.Context()
	client := newQuranClient()
	ch, err := client.Chapter(ctx, id)
	if err != nil {
		return err
	}
	verses, err := client.Verses(ctx, ch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(out, quranJSON{Chapter: ch, AudioURL: quran.AudioURL(id), Verses: verses})
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s  %s\n", display.Bold(fmt.Sprintf("%d. %s", ch.ID, ch.NameSimple)), ch.NameArabic)
	fmt.Fprintf(out, "  %s\n", display.Gray(fmt.Sprintf("%s, %d verses, %s", ch.TranslatedName.Name, ch.VersesCount, ch.RevelationPlace)))
	fmt.Fprintf(out, "  %s\n", quran.AudioURL(id))
	fmt.Fprintln(out)
	for _, v := range verses {
		fmt.Fprintf(out, "  %s  %s\n", display.Cyan(v.Key), v.TextUthmani)
		if flagTranslation && v.Translation != "" {
			fmt.Fprintf(out, "  %s\n", v.Translation)
		}
		fmt.Fprintln(out)
	}
	return nil
}
