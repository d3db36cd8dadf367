package assistant

import (
	"fmt"
	"strings"

	"droidfolio/services/content"
)

const (
	// WelcomeMessage opens every transcript
	WelcomeMessage = "Hi! I'm Rabin Assistant. Ask me anything about the developer's projects or skills, or ask for a story about a project!"

	// FallbackMessage replaces the reply when the model call fails
	FallbackMessage = "I'm having trouble connecting right now. Please check your internet connection."

	// StoryPrompt is sent by the story shortcut
	StoryPrompt = "Tell me a creative, behind-the-scenes story about the development journey of one of the projects."

	descriptionEmpty  = "Could not generate description."
	descriptionFailed = "Failed to generate description via Gemini AI."
)

const instructionHeader = `You are an AI Assistant for a Junior Web Developer's Portfolio named "Rabin Adhikari".

Your role is to answer questions strictly about the developer's projects, skills, and professional background based on the context provided below.

The Developer is a Junior Web Developer specializing in React, TypeScript, and modern web development.

Here is the list of projects in the portfolio:
`

const instructionRules = `
Rules:
1. Only answer questions related to the portfolio, the projects listed above, or Web development skills.
2. If a user asks about something unrelated, politely decline and steer them back to the portfolio.
3. Keep answers concise, professional, and enthusiastic.
4. STORY MODE: If the user asks for a "Story" or uses the Story feature, use your creative license to narrate a dramatic or engaging "behind-the-scenes" journey of how one of the projects was built. Talk about the challenges (e.g., "We struggled with race conditions in the API state...") and the eventual success. Make it sound heroic but grounded in technical reality.
5. IMAGE INPUT: If the user provides an image, assume it is a screenshot of a web app or UI design. Provide constructive feedback or relate it to the style of the portfolio projects.
`

// SystemInstruction builds the persona prompt around a snapshot of projects
func SystemInstruction(projects []content.Project) string {
	blocks := make([]string, 0, len(projects))
	for _, p := range projects {
		blocks = append(blocks, projectSummary(p))
	}

	var b strings.Builder
	b.WriteString(instructionHeader)
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n")
	b.WriteString(instructionRules)
	return b.String()
}

func projectSummary(p content.Project) string {
	var links []string
	if p.PlayStoreURL != "" {
		links = append(links, "Demo/Site available")
	}
	if p.GithubURL != "" {
		links = append(links, "GitHub available")
	}

	return fmt.Sprintf("- Project Name: %s\n  - Description: %s\n  - Tech Stack: %s\n  - Links: %s",
		p.Title, p.Description, strings.Join(p.TechStack, ", "), strings.Join(links, " "))
}

func descriptionPrompt(title string, techStack []string) string {
	return fmt.Sprintf(`Write a professional, compelling, and technical project description for a Web Developer portfolio.

Project Title: %s
Tech Stack: %s

The description should be around 50-80 words. Focus on the technical implementation, features, and user benefits.
Sound like a skilled Web Developer.`, title, strings.Join(techStack, ", "))
}
