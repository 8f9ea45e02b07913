// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/pkg/pointer"
)

// # Demo Content

// SeedPlan describes one batch of demo storybooks.
type SeedPlan struct {
	Status   Status
	Books    int
	MinPages int
	MaxPages int
}

// DefaultSeedPlans creates ten published books of 5-8 pages and five drafts of 2-4 pages.
var DefaultSeedPlans = []SeedPlan{
	{Status: StatusPublished, Books: 10, MinPages: 5, MaxPages: 8},
	{Status: StatusDraft, Books: 5, MinPages: 2, MaxPages: 4},
}

var (
	seedTitles = []string{
		"The Little Elephant's Adventure",
		"Rainbow Forest Tales",
		"Magic Garden Stories",
		"The Brave Little Mouse",
		"Journey to the Moon",
		"The Singing Bird",
		"Golden Mountain Quest",
		"The Kind Dragon",
		"Ocean Friends",
		"Starlight Adventures",
	}

	seedAuthors = []string{
		"Maya Sharma", "Rajesh Patel", "Priya Singh", "Arjun Kumar",
		"Kavya Reddy", "Suresh Gupta", "Anita Mehta", "Vikram Joshi",
	}

	seedAgeGroups = []string{"3-5", "5-7", "7-9", "9-12"}

	seedTags = [][]string{
		{"adventure", "friendship"},
		{"magic", "fantasy"},
		{"animals", "nature"},
		{"courage", "kindness"},
		{"space", "exploration"},
		{"music", "creativity"},
		{"family", "love"},
	}

	seedLanguages = [][]language.Code{
		{language.English},
		{language.Hindi},
		{language.English, language.Hindi},
	}

	seedText = map[language.Code][]string{
		language.English: {
			"Once upon a time, in a magical forest...",
			"The little elephant woke up early in the morning.",
			"She decided to explore the colorful meadow.",
			"Along the way, she met a friendly rabbit.",
			"Together, they discovered a hidden treasure.",
			"The sun was setting, painting the sky orange.",
			"They realized friendship was the greatest treasure.",
			"And they lived happily ever after.",
		},
		language.Hindi: {
			"एक बार की बात है, एक जादुई जंगल में...",
			"छोटा हाथी सुबह जल्दी उठ गया।",
			"उसने रंगबिरंगे मैदान का पता लगाने का फैसला किया।",
			"रास्ते में उसकी मुलाकात एक दोस्त खरगोश से हुई।",
			"साथ मिलकर उन्होंने एक छुपा हुआ खजाना खोजा।",
			"सूरज डूब रहा था, आसमान को नारंगी रंग से रंग रहा था।",
			"उन्हें एहसास हुआ कि दोस्ती सबसे बड़ा खजाना थी।",
			"और वे हमेशा खुश रहे।",
		},
	}
)

/*
Seed creates demo storybooks through the regular service operations, so
validation applies and page_count is derived exactly as in production.

Parameters:
  - context: context.Context
  - random: *rand.Rand (Seeded for reproducible content)
  - plans: []SeedPlan

Returns:
  - []*Storybook: The created storybooks with their final page_count
  - error: The first failing operation
*/
func (service *Service) Seed(context context.Context, random *rand.Rand, plans []SeedPlan) ([]*Storybook, error) {
	var created []*Storybook

	for _, plan := range plans {
		for range plan.Books {

			storybook, err := service.Create(context, StorybookInput{
				Title:       pick(random, seedTitles),
				Author:      pick(random, seedAuthors),
				Languages:   pick(random, seedLanguages),
				Description: pointer.To(fmt.Sprintf("A %s story for young readers.", pick(random, seedTags)[0])),
				Status:      plan.Status,
				AgeGroup:    pointer.To(pick(random, seedAgeGroups)),
				Tags:        pick(random, seedTags),
			})
			if err != nil {
				return nil, fmt.Errorf("seed: failed to create storybook: %w", err)
			}

			pages := plan.MinPages + random.IntN(plan.MaxPages-plan.MinPages+1)
			for number := 1; number <= pages; number++ {
				text := make(map[language.Code]string, len(storybook.Languages))
				for _, code := range storybook.Languages {
					text[code] = pick(random, seedText[code])
				}

				if _, err := service.AddPage(context, storybook.ID, PageInput{PageNumber: number, TextContent: text}); err != nil {
					return nil, fmt.Errorf("seed: failed to add page %d: %w", number, err)
				}
			}

			storybook.PageCount = pages
			created = append(created, storybook)
		}
	}

	return created, nil
}

func pick[T any](random *rand.Rand, options []T) T {
	return options[random.IntN(len(options))]
}
