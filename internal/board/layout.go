package board

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/dexwatch/internal/shared"
)

// Game is one entry of a layout file.
type Game struct {
	ID       string     `toml:"-"`
	Name     string     `toml:"name"`
	Expected [][]string `toml:"expected"` // Boxes of expected entries; "" is a filler slot
}

// Total counts the non-filler slots.
func (g Game) Total() int {
	total := 0
	for _, box := range g.Expected {
		for _, entry := range box {
			if entry != "" {
				total++
			}
		}
	}
	return total
}

// Layout lists the games of a page in file order.
type Layout struct {
	Games []Game
}

// Game looks up a game by id.
func (l *Layout) Game(id string) (Game, bool) {
	for _, g := range l.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

type layoutFile struct {
	Games map[string]Game `toml:"games"`
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes a TOML layout of the form
//
//	[games.red]
//	name = "Red"
//	expected = [["bulbasaur", "ivysaur", ""]]
//
// Unknown keys are allowed so the server's own game file can be reused.
func ParseLayout(data []byte) (*Layout, error) {
	var file layoutFile
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidLayout, err)
	}

	layout := &Layout{}
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "games" {
			continue
		}

		id := key[1]
		game := file.Games[id]
		game.ID = id
		if game.Name == "" {
			game.Name = id
		}
		layout.Games = append(layout.Games, game)
	}

	if len(layout.Games) == 0 {
		return nil, fmt.Errorf("%w: no games defined", shared.ErrInvalidLayout)
	}
	return layout, nil
}
