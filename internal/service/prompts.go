package service

// Prompt texts for story and image generation. The style suffixes are a
// fixed part of the product's look; prompts coming from users or from the
// story model never carry them, they are appended here.

const storySystemPromptTemplate = `You are a creative children's storyboard artist. Given an idea, create a short visual story broken into %d scenes. Each scene should be vivid, colorful, and suitable for a childish paper drawing style animation.

Return ONLY valid JSON in this exact format:
{
  "title": "Story Title",
  "scenes": [
    {
      "id": 1,
      "narration": "Short narration text for this scene (1-2 sentences, fun and playful)",
      "imagePrompt": "Detailed image generation prompt for a childish colorful paper/crayon drawing style. Include: specific objects, characters, colors, setting. Always specify: 'children's crayon drawing on white paper, colorful, simple shapes, hand-drawn style, cute'"
    }
  ]
}

Make the story fun, playful, and visually interesting. Each scene should flow naturally into the next. Keep narrations short and engaging.`

const storyUserPromptTemplate = `Create a %d-scene visual story for this idea: "%s"`

const regeneratePromptSystemPrompt = `You create image generation prompts for children's crayon drawings. Given a scene narration and optional feedback, create a detailed image prompt.
Return ONLY the prompt text, nothing else. Always include: "children's crayon drawing on white paper, colorful, simple shapes, hand-drawn style, cute"`

// imageStyleSuffix is appended to every image prompt.
const imageStyleSuffix = `. Style: child's crayon drawing on white paper, colorful thick crayon lines, simple cute shapes, hand-drawn by a 6 year old child, bright primary colors, paper texture background, no text, no words, playful and whimsical`

// regenerateStyleSuffix is the variant used when regenerating a scene image.
const regenerateStyleSuffix = `. Style: child's crayon drawing on white paper, colorful thick crayon lines, simple cute shapes, hand-drawn by a 6 year old child, bright primary colors, paper texture background, no text, no words`
