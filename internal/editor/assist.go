package editor

import (
	"fmt"
	"strings"

	"socialsync/internal/model"
)

// Caption is a generated caption tagged with the tone it was written in.
type Caption struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

const ToneCustom = "Custom"

var defaultPrompts = map[model.Platform]string{
	model.PlatformInstagram: "Create an engaging Instagram caption with emojis and relevant hashtags",
	model.PlatformFacebook:  "Write a conversational Facebook post that encourages engagement",
	model.PlatformLinkedIn:  "Generate a professional LinkedIn post with industry insights",
	model.PlatformTwitter:   "Create a concise Twitter post with trending hashtags",
}

// DefaultPrompt is the prompt used for p when the user gives none.
func DefaultPrompt(p model.Platform) string { return defaultPrompts[p] }

var toneCaptions = []Caption{
	{
		Tone: "Excited",
		Text: "🚀 Exciting news! We're launching our new AI-powered social media management tool that will revolutionize how you create and schedule content across all platforms.\n\n" +
			"Say goodbye to manual posting and hello to intelligent automation! ✨\n\n" +
			"#SocialMedia #AI #Marketing #ContentCreation #Automation",
	},
	{
		Tone: "Professional",
		Text: "Transform your social media strategy with our cutting-edge AI technology. Create, optimize, and schedule content that resonates with your audience across Instagram, Facebook, LinkedIn, and Twitter.\n\n" +
			"Ready to boost your engagement? 📈\n\n" +
			"#DigitalMarketing #SocialMediaTools #BusinessGrowth",
	},
	{
		Tone: "Casual",
		Text: "Managing multiple social media accounts just got easier! 💪\n\n" +
			"Our new platform uses AI to generate personalized content for each channel, ensuring your message hits the right note every time.\n\n" +
			"Who's ready to save hours on content creation? 🙋‍♀️\n\n" +
			"#ProductivityHack #SocialMediaManagement #TimesSaver",
	},
}

// SuggestCaptions returns caption variations for platform. An empty prompt
// yields one caption per tone; a custom prompt yields a single caption
// tagged ToneCustom.
func SuggestCaptions(platform, prompt string) ([]Caption, error) {
	p, err := model.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return append([]Caption(nil), toneCaptions...), nil
	}
	return []Caption{{
		Tone: ToneCustom,
		Text: fmt.Sprintf("Based on your custom prompt: %q\n\n"+
			"Here's a tailored caption that matches your specific requirements and brand voice. "+
			"This content is optimized for %s and designed to drive engagement.\n\n"+
			"#CustomContent #BrandVoice #Engagement", prompt, p),
	}}, nil
}

// ContentType is what a generator is asked to produce.
type ContentType string

const (
	ContentCaption ContentType = "caption"
	ContentImage   ContentType = "image"
	ContentVideo   ContentType = "video"
	ContentStory   ContentType = "story"
	ContentAd      ContentType = "ad"
)

// Generator is a content generator offered in the editor.
type Generator struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	BestFor      string   `json:"bestFor"`
	Available    bool     `json:"available"`
	Recommended  bool     `json:"recommended"`
}

var generators = []Generator{
	{ID: "veo3", Name: "VEO-3", Description: "Advanced video and visual content generation",
		Capabilities: []string{"Video Generation", "Visual Effects", "Motion Graphics"}, BestFor: "video content, reels, stories", Available: true},
	{ID: "adcreative", Name: "AdCreative AI", Description: "AI-powered ad creative and copy generation",
		Capabilities: []string{"Ad Copy", "Headlines", "CTA Generation"}, BestFor: "promotional posts, advertisements", Available: true},
	{ID: "midjourney", Name: "Midjourney", Description: "High-quality image and artwork generation",
		Capabilities: []string{"Image Creation", "Artwork", "Visual Design"}, BestFor: "creative visuals, brand imagery", Available: true},
	{ID: "claude", Name: "Claude AI", Description: "Advanced text and content generation",
		Capabilities: []string{"Long-form Content", "Copywriting", "Analysis"}, BestFor: "detailed captions, articles", Available: true},
	{ID: "gpt4", Name: "GPT-4", Description: "Versatile AI for various content types",
		Capabilities: []string{"Text Generation", "Creative Writing", "Code"}, BestFor: "general content, captions", Available: true},
	{ID: "runway", Name: "Runway ML", Description: "Creative AI tools for multimedia content",
		Capabilities: []string{"Video Editing", "Audio Generation", "Creative Effects"}, BestFor: "multimedia content, editing", Available: false},
}

var recommended = map[model.Platform][]string{
	model.PlatformInstagram: {"veo3", "midjourney", "adcreative"},
	model.PlatformFacebook:  {"adcreative", "gpt4", "claude"},
	model.PlatformLinkedIn:  {"claude", "gpt4", "adcreative"},
	model.PlatformTwitter:   {"gpt4", "claude", "adcreative"},
}

// Generators lists the generators with Recommended set for platform.
func Generators(platform model.Platform) []Generator {
	out := make([]Generator, len(generators))
	for i, g := range generators {
		g.Capabilities = append([]string(nil), g.Capabilities...)
		for _, id := range recommended[platform] {
			if id == g.ID {
				g.Recommended = true
			}
		}
		out[i] = g
	}
	return out
}

// generated holds the canned output per generator and content type.
// {platform} is replaced with the platform name.
var generated = map[string]map[ContentType]string{
	"veo3": {
		ContentCaption: "🎬 Created with VEO-3 AI\n\nExperience the future of video content creation! Our AI-generated video perfectly captures your brand's essence while maximizing engagement on {platform}.\n\n✨ Key features:\n• Advanced motion graphics\n• Professional transitions\n• Platform-optimized aspect ratio\n\n#VEO3 #AIVideo #{platform}Content #Innovation",
		ContentImage:   "Generated a stunning 4K video preview optimized for {platform}",
		ContentVideo:   "Created a 30-second engaging video with custom branding and music",
	},
	"adcreative": {
		ContentCaption: "🚀 AdCreative AI Generated Content\n\nBoost your {platform} performance with this conversion-optimized post! Our AI analyzed thousands of high-performing ads to create content that drives results.\n\n💡 Features:\n• High-conversion copy\n• A/B tested headlines\n• Platform-specific CTAs\n\nReady to see 3x more engagement? 📈\n\n#AdCreativeAI #MarketingAI #{platform}Ads #Conversion",
		ContentImage:   "Generated high-converting ad creative with compelling visuals",
		ContentAd:      "Created complete ad campaign with headlines, descriptions, and CTAs",
	},
	"midjourney": {
		ContentCaption: "🎨 Midjourney AI Artwork\n\nTransform your {platform} feed with this breathtaking AI-generated artwork! Every pixel crafted to perfection using advanced AI image generation.\n\n🌟 Artwork specs:\n• Ultra-high resolution\n• Brand-consistent style\n• Optimized for {platform}\n\n#MidjourneyAI #AIArt #DigitalArt #{platform}Design #Creative",
		ContentImage:   "Generated photorealistic artwork with stunning detail and composition",
		ContentStory:   "Created a series of cohesive story visuals with consistent artistic style",
	},
	"claude": {
		ContentCaption: "📝 Claude AI Content\n\nCrafted with advanced reasoning and nuanced understanding, this {platform} post balances informativeness with engagement. Claude AI ensures your message resonates with your specific audience.\n\n🧠 Content highlights:\n• Contextually aware\n• Audience-optimized\n• Brand voice consistent\n• Platform best practices\n\n#ClaudeAI #SmartContent #{platform}Strategy #AIWriting",
		ContentStory:   "Generated compelling long-form narrative optimized for your audience",
	},
	"gpt4": {
		ContentCaption: "🤖 GPT-4 Generated Content\n\nLeveraging the power of advanced language AI to create engaging {platform} content that speaks directly to your audience. Versatile, creative, and optimized for maximum impact.\n\n⚡ GPT-4 advantages:\n• Context understanding\n• Creative versatility\n• Multi-language support\n• Trend awareness\n\n#GPT4 #OpenAI #{platform}Content #AIWriting #Innovation",
		ContentImage:   "Generated detailed content brief for visual creation",
		ContentStory:   "Created engaging narrative content with perfect tone and style",
	},
}

// Generate returns the mocked output of generator for kind on platform.
// Unavailable or unknown generators are a validation error.
func Generate(generator string, kind ContentType, platform string) (string, error) {
	p, err := model.ParsePlatform(platform)
	if err != nil {
		return "", err
	}
	switch kind {
	case ContentCaption, ContentImage, ContentVideo, ContentStory, ContentAd:
	default:
		return "", fmt.Errorf("%w: unknown content type %q", model.ErrValidation, kind)
	}
	var found *Generator
	for i := range generators {
		if generators[i].ID == generator {
			found = &generators[i]
		}
	}
	if found == nil || !found.Available {
		return "", fmt.Errorf("%w: generator %q is not available", model.ErrValidation, generator)
	}
	if tmpl, ok := generated[generator][kind]; ok {
		return strings.ReplaceAll(tmpl, "{platform}", string(p)), nil
	}
	return fmt.Sprintf("Generated %s content using %s for %s", kind, generator, p), nil
}
