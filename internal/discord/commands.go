package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/internal/render"
)

// slashCommand ties a registered slash command to a service command. Options
// are passed to the service positionally in declaration order.
type slashCommand struct {
	definition *discordgo.ApplicationCommand
	command    string
}

func callsignOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

var slashCommands = []slashCommand{
	{
		command: lookup.CommandLookup,
		definition: &discordgo.ApplicationCommand{
			Name:        "ham",
			Description: "Search for a callsign.",
			Options:     []*discordgo.ApplicationCommandOption{callsignOption("callsign", "Callsign to look up")},
		},
	},
	{
		command: lookup.CommandStats,
		definition: &discordgo.ApplicationCommand{
			Name:        "stats",
			Description: "Show QRZ logbook statistics for a callsign.",
			Options:     []*discordgo.ApplicationCommandOption{callsignOption("callsign", "Callsign to look up")},
		},
	},
	{
		command: lookup.CommandDistance,
		definition: &discordgo.ApplicationCommand{
			Name:        "distance",
			Description: "Great-circle distance between two stations.",
			Options: []*discordgo.ApplicationCommandOption{
				callsignOption("from", "First callsign"),
				callsignOption("to", "Second callsign"),
			},
		},
	},
	{
		command: lookup.CommandConditions,
		definition: &discordgo.ApplicationCommand{
			Name:        "conditions",
			Description: "Show current HF and VHF band conditions.",
		},
	},
}

// Definitions returns the slash commands registered with the guild
func Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, len(slashCommands))
	for i, c := range slashCommands {
		defs[i] = c.definition
	}
	return defs
}

func findCommand(name string) (slashCommand, bool) {
	for _, c := range slashCommands {
		if c.definition.Name == name {
			return c, true
		}
	}
	return slashCommand{}, false
}

// arguments orders the submitted option values the way the command declares them
func arguments(c slashCommand, data discordgo.ApplicationCommandInteractionData) []string {
	values := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			values[o.Name] = o.StringValue()
		}
	}

	var args []string
	for _, o := range c.definition.Options {
		args = append(args, values[o.Name])
	}
	return args
}

// Embed converts a rendered card into a Discord embed
func Embed(card render.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: card.Title,
		Color: card.Color,
	}
	for _, f := range card.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if card.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: card.ImageURL}
	}
	return embed
}
