package discordbot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/domain/leagueweek"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const settingNameWidth = 15

func formatSettings(week leagueweek.Key, settings []leaguesettings.Setting) string {
	if len(settings) == 0 {
		return fmt.Sprintf("No settings set for week %s", week)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("League settings for week ")
	_, _ = buf.WriteString(string(week))
	_, _ = buf.WriteString("\n```")
	for i, s := range settings {
		if i > 0 {
			_ = buf.WriteByte('\n')
		}
		_, _ = buf.WriteString(s.Name)
		if pad := settingNameWidth - len(s.Name); pad > 0 {
			_, _ = buf.WriteString(strings.Repeat(" ", pad))
		}
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(s.Value)
	}
	_, _ = buf.WriteString("```")
	return buf.String()
}

// formatSeed renders the header plus spoiler, map and history links.
func formatSeed(artifact seed.Artifact) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = buf.WriteByte('`')
	_, _ = buf.WriteString(artifact.Header)
	_ = buf.WriteByte('`')
	writeLink := func(label, url string) {
		if url == "" {
			return
		}
		_, _ = buf.WriteString("\n**")
		_, _ = buf.WriteString(label)
		_, _ = buf.WriteString("**: [link](")
		_, _ = buf.WriteString(url)
		_ = buf.WriteByte(')')
	}
	writeLink("Spoiler", artifact.SpoilerURL)
	writeLink("Map", artifact.MapURL)
	writeLink("History", artifact.HistoryURL)
	return buf.String()
}

func formatLeagueSeed(artifact seed.Artifact) string {
	return "`" + artifact.Header + "`"
}

func formatSubmission(res usecase.SubmitResult) string {
	if res.SpoilerURL == "" {
		return "Submission successful!"
	}
	return fmt.Sprintf("Submission successful! You can view this week's spoiler [here](%s)", res.SpoilerURL)
}

// formatReminder mentions nobody; runner names are display names, not IDs.
func formatReminder(reminder usecase.Reminder) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("Reminder: the league week ")
	_, _ = buf.WriteString(string(reminder.Week))
	_, _ = buf.WriteString(" closes <t:")
	_, _ = buf.WriteString(strconv.FormatInt(reminder.Deadline.Unix(), 10))
	_, _ = buf.WriteString(":R>. Still missing a submission:")
	for _, runner := range reminder.Missing {
		_, _ = buf.WriteString("\n- ")
		_, _ = buf.WriteString(runner)
	}
	return buf.String()
}
