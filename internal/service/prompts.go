package service

import (
	"fmt"
	"strings"

	"brushquest-server/internal/models"
)

// Prompt builders for the generation pipeline. Every prompt asks for ONLY
// JSON; the extraction step treats the model as untrusted text regardless.

const audiencePreamble = `You are a children's author writing for kids aged 4-10 who listen to a short
story chapter while brushing their teeth. Keep language simple, warm and
exciting. Never include anything scary, violent or sad beyond mild peril.
Refer to the listening child as [CHILD] and to their pet companion as [PET];
use these placeholder tokens literally, they are substituted later.`

func worldPrompt(theme string) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	b.WriteString("\n\nInvent a new story world")
	if theme != "" {
		fmt.Fprintf(&b, " with the theme %q", theme)
	}
	b.WriteString(`.
Respond with ONLY JSON:
{"name": "kebab-case-slug", "displayName": "...", "description": "2-3 sentences", "theme": "one-word tag"}`)
	return b.String()
}

func pitchesPrompt(world *models.World, count int) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	fmt.Fprintf(&b, `

The world is %q: %s

Propose %d different story pitches set in this world. Each pitch is a complete
adventure for [CHILD] and [PET].
Respond with ONLY a JSON array:
[{"title": "...", "description": "2-3 sentences"}]`,
		world.DisplayName, world.Description, count)
	return b.String()
}

func outlinePrompt(world *models.World, pitch *models.StoryPitch, chapterCount int) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	fmt.Fprintf(&b, `

The world is %q: %s
The story is %q: %s

Write a chapter outline with exactly %d chapters. Every chapter except the
last must end on a gentle cliffhanger that pulls into the next one.
Respond with ONLY a JSON array:
[{"chapter": 1, "title": "...", "summary": "2-3 sentences"}]`,
		world.DisplayName, world.Description, pitch.Title, pitch.Description, chapterCount)
	return b.String()
}

func biblePrompt(world *models.World, pitch *models.StoryPitch) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	fmt.Fprintf(&b, `

The world is %q: %s
The story is %q: %s
Chapter outline:
%s

Before any chapter is written, produce a story bible: the recurring characters,
locations and objects of this story, each with a stable visual description so
every illustration looks the same. Do not include [CHILD] or [PET] themselves.
Respond with ONLY JSON:
{"characters": [{"name": "...", "appearance": "...", "personality": "...", "role": "..."}],
 "locations": [{"name": "...", "appearance": "...", "mood": "..."}],
 "objects": [{"name": "...", "appearance": "...", "significance": "..."}]}`,
		world.DisplayName, world.Description, pitch.Title, pitch.Description,
		formatOutline(pitch.Outline))
	return b.String()
}

func chapterPrompt(world *models.World, story *models.Story, entry models.OutlineEntry, prevCliffhanger string, isFinal bool) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	fmt.Fprintf(&b, `

The world is %q: %s
The story is %q: %s
Story bible (keep every appearance consistent with it):
%s

Write chapter %d, %q: %s`,
		world.DisplayName, world.Description, story.Title, story.Description,
		formatBible(story.Bible), entry.Chapter, entry.Title, entry.Summary)
	if prevCliffhanger != "" {
		fmt.Fprintf(&b, "\nThe previous chapter ended on this cliffhanger, resolve it first: %s", prevCliffhanger)
	}
	if isFinal {
		b.WriteString("\nThis is the final chapter: end the story happily, no cliffhanger.")
	}
	b.WriteString(`

The chapter has exactly 5 segments of roughly 15 seconds of narration each.
Each segment also needs an illustration prompt describing its single key scene.
Respond with ONLY JSON:
{"title": "...",
 "recap": "one sentence recapping the story so far, or null for chapter 1",
 "segments": [{"text": "...", "imagePrompt": "..."}],
 "cliffhanger": "the sentence the chapter ends on (empty string for the final chapter)",
 "teaser": "one exciting sentence about the next chapter (empty for the final chapter)"}`)
	return b.String()
}

func referenceExtractionPrompt(existing []models.StoryReference, chapterTexts []string) string {
	names := make([]string, 0, len(existing))
	for _, ref := range existing {
		names = append(names, ref.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, `Read the story chapters below and list every visually distinct character,
object and location that appears, excluding [CHILD], [PET] and these already
known entities: %s.

Chapters:
%s

Respond with ONLY a JSON array:
[{"type": "character|object|location", "name": "...", "description": "visual description"}]`,
		strings.Join(names, ", "), strings.Join(chapterTexts, "\n---\n"))
	return b.String()
}

func storyboardPrompt(refs []models.StoryReference, chapter *models.Chapter, segments []models.Segment) string {
	var b strings.Builder
	b.WriteString("Known entities:\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "- %s (%s): %s\n", ref.Name, ref.Type, ref.Description)
	}
	fmt.Fprintf(&b, "\nChapter %d, %q. Segments:\n", chapter.ChapterNumber, chapter.Title)
	for _, seg := range segments {
		fmt.Fprintf(&b, "%d. %s\n", seg.Position, seg.Text)
	}
	b.WriteString(`
For each segment, stage the illustration: where it happens, who is in frame,
and how the camera sees it. Use the known entity names verbatim.
Respond with ONLY a JSON array, one entry per segment in order:
[{"location": "...", "characters": ["..."], "shotType": "wide|medium|close-up",
  "cameraAngle": "...", "continuityNote": "what must match neighboring segments"}]`)
	return b.String()
}

func petSuggestionsPrompt(count int) string {
	return fmt.Sprintf(`%s

Invent %d new pet companions a child could choose in the app. Each pet has a
distinct species, look and personality.
Respond with ONLY a JSON array:
[{"name": "kebab-case-slug", "displayName": "...", "description": "2 sentences",
  "personality": "one sentence", "unlockCost": 100}]`, audiencePreamble, count)
}

func collectiblesPrompt(world *models.World, collectibleType models.CollectibleType, count int) string {
	var b strings.Builder
	b.WriteString(audiencePreamble)
	fmt.Fprintf(&b, "\n\nInvent %d %s collectibles", count, collectibleType)
	if world != nil {
		fmt.Fprintf(&b, " themed for the world %q: %s", world.DisplayName, world.Description)
	}
	b.WriteString(`.
Respond with ONLY a JSON array:
[{"name": "kebab-case-slug", "displayName": "...", "description": "one sentence",
  "rarity": "common|rare|epic"}]`)
	return b.String()
}

func musicPrompt(story *models.Story, world *models.World) string {
	return fmt.Sprintf(
		"Gentle instrumental background loop for a children's story titled %q set in %s. Theme: %s. Calm, warm, no vocals, suitable for a two-minute toothbrushing session.",
		story.Title, world.DisplayName, world.Theme)
}

func formatOutline(outline []models.OutlineEntry) string {
	var b strings.Builder
	for _, e := range outline {
		fmt.Fprintf(&b, "%d. %s: %s\n", e.Chapter, e.Title, e.Summary)
	}
	return b.String()
}

func formatBible(bible *models.StoryBible) string {
	if bible == nil {
		return "(none)"
	}
	var b strings.Builder
	for _, c := range bible.Characters {
		fmt.Fprintf(&b, "Character %s: %s. Personality: %s. Role: %s.\n",
			c.Name, c.Appearance, c.Personality, c.Role)
	}
	for _, l := range bible.Locations {
		fmt.Fprintf(&b, "Location %s: %s. Mood: %s.\n", l.Name, l.Appearance, l.Mood)
	}
	for _, o := range bible.Objects {
		fmt.Fprintf(&b, "Object %s: %s. Significance: %s.\n",
			o.Name, o.Appearance, o.Significance)
	}
	return b.String()
}
