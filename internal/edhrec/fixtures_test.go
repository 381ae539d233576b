package edhrec

const merenPageJSON = `{
  "header": "Meren of Clan Nel Toth (Commander)",
  "avg_price": 412.5,
  "container": {
    "json_dict": {
      "card": {
        "name": "Meren of Clan Nel Toth",
        "sanitized": "meren-of-clan-nel-toth",
        "cmc": 4,
        "color_identity": ["B", "G"],
        "salt": 1.1,
        "num_decks": 20000,
        "rank": 42,
        "prices": {"tcgplayer": {"price": 3.5}}
      },
      "cardlists": [
        {
          "tag": "highsynergycards",
          "header": "High Synergy Cards",
          "cardviews": [
            {"name": "Spore Frog", "synergy": 0.61, "inclusion": 15000, "potential_decks": 20000, "prices": {"cardkingdom": {"price": 0.49}}},
            {"name": "Sakura-Tribe Elder", "synergy": 0.32, "inclusion": 14000, "potential_decks": 20000}
          ]
        },
        {
          "tag": "topcards",
          "header": "Top Cards",
          "cardviews": [
            {"name": "Sol Ring", "synergy": -0.05, "inclusion": 19000, "potential_decks": 20000, "prices": {"tcgplayer": {"price": 1.25}}},
            {"name": "Sakura-Tribe Elder", "synergy": 0.32, "inclusion": 14000, "potential_decks": 20000}
          ]
        },
        {
          "tag": "newcards",
          "header": "New Cards",
          "cardviews": [
            {"name": "Brand New Card", "synergy": 0.9, "inclusion": 10, "potential_decks": 50}
          ]
        },
        {
          "tag": "lands",
          "header": "Lands",
          "cardviews": [
            {"name": "Swamp", "synergy": 0, "num_decks": 20000}
          ]
        }
      ]
    }
  },
  "panels": {
    "taglinks": [
      {"value": "Sacrifice", "slug": "sacrifice", "count": 3000},
      {"value": "Reanimator", "slug": "reanimator", "count": 5000},
      {"value": "Graveyard", "slug": "graveyard", "count": 1000}
    ]
  }
}`

const merenBudgetPageJSON = `{
  "header": "Meren of Clan Nel Toth (Commander)",
  "avg_price": 98,
  "container": {
    "json_dict": {
      "card": {"name": "Meren of Clan Nel Toth", "color_identity": ["B", "G"], "num_decks": 1500},
      "cardlists": [
        {
          "tag": "highsynergycards",
          "cardviews": [
            {"name": "Spore Frog", "synergy": 0.7, "inclusion": 1400, "potential_decks": 1500}
          ]
        }
      ]
    }
  },
  "panels": {"taglinks": [{"value": "Reanimator", "count": 600}]}
}`

const mysteryPageJSON = `{
  "header": "Mystery Commander (Commander)",
  "container": {
    "json_dict": {
      "cardlists": [
        {"tag": "topcards", "cardviews": [{"name": "Sol Ring", "inclusion": 50, "potential_decks": 100}]}
      ]
    }
  }
}`

const topCommandersJSON = `{
  "header": "Top Commanders",
  "container": {
    "json_dict": {
      "cardlists": [
        {
          "tag": "commanders",
          "cardviews": [
            {"name": "The Ur-Dragon", "sanitized": "the-ur-dragon"},
            {"name": "Atraxa, Praetors' Voice", "sanitized": "atraxa-praetors-voice"},
            {"name": "Edgar Markov"},
            {"name": "The Ur-Dragon", "sanitized": "the-ur-dragon"}
          ]
        }
      ]
    }
  }
}`
