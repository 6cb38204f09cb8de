package discord

import "github.com/bwmarrin/discordgo"

var teamTypeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "community", Value: "Community"},
	{Name: "competitive", Value: "Competitive"},
}

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "team",
		Description: "Gestiona teams (rol + canales + miembros)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Crea un team con su rol y canales",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo de team", Required: true, Choices: teamTypeChoices},
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del team", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "members", Description: "Miembros (menciones o IDs, máx. 7)", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "captain", Description: "Captain (debe estar entre los miembros)"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Elimina un team y todo lo suyo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo de team", Required: true, Choices: teamTypeChoices},
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del team", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "edit",
				Description: "Edita un team (sólo lo que pases)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo actual", Required: true, Choices: teamTypeChoices},
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre actual", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "new_name", Description: "Nuevo nombre"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "new_type", Description: "Nuevo tipo", Choices: teamTypeChoices},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "captain", Description: "Nuevo captain"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "clear_captain", Description: "Dejar el team sin captain"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "add_members", Description: "Altas (menciones o IDs)"},
					{Type: discordgo.ApplicationCommandOptionString, Name: "remove_members", Description: "Bajas (menciones o IDs)"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Lista los teams registrados",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "Tipo de team", Required: true, Choices: teamTypeChoices},
				},
			},
		},
	},
	{
		Name:        "roster",
		Description: "Gestiona las listas looking-for-team y clan-member",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "lft",
				Description: "Lista looking-for-team",
				Options:     rosterSubcommands("looking-for-team"),
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "clan",
				Description: "Lista clan-member",
				Options:     rosterSubcommands("clan-member"),
			},
		},
	},
}

func rosterSubcommands(label string) []*discordgo.ApplicationCommandOption {
	members := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "members",
		Description: "Miembros (menciones o IDs)",
		Required:    true,
	}
	return []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "add", Description: "Agregar a " + label, Options: []*discordgo.ApplicationCommandOption{members}},
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "remove", Description: "Quitar de " + label, Options: []*discordgo.ApplicationCommandOption{members}},
		{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Ver " + label},
	}
}
