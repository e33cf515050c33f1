package store

import "handyman/internal/model"

// SampleCatalog is what `handyman init` writes.
func SampleCatalog() model.Catalog {
	return model.Catalog{
		Menus: []model.Record{
			{"menu": "Home", "text": "Welcome to Kendal"},
			{"menu": "Whats On", "parent": "Home", "text": "Events this week"},
			{"menu": "Local", "parent": "Home", "text": "Local attractions"},
			{"menu": "Eating Out", "parent": "Local", "text": "Places to eat"},
			{"menu": "Local Walks", "parent": "Local", "text": "Walks from the door"},
		},
		Offerings: []model.Record{
			{"menu": "Whats On", "text": "Brewery Arts Centre", "image": "brewery", "link": "https://www.breweryarts.co.uk/"},
			{"menu": "Eating Out", "text": "Castle Inn", "image": "castle_inn", "link": "https://example.com/castle-inn"},
			{"menu": "Eating Out", "text": "**People's Cafe**, breakfast all day", "image": "peoples_cafe", "link": "https://example.com/peoples-cafe"},
			{"menu": "Local Walks", "text": "Kendal Castle loop", "image": "castle", "link": "https://example.com/castle-loop"},
		},
	}
}
