package plugins

import (
	"math/rand"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pretend-bot/pretend/helpers"
)

type Uwu struct {
	sync.Mutex
	rng *rand.Rand
}

func (u *Uwu) Commands() []string {
	return []string{
		"uwu",
		"uwuify",
		"owo",
	}
}

func (u *Uwu) Init(session *discordgo.Session) {
	u.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (u *Uwu) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	if content == "" {
		helpers.SendWarn(msg, helpers.GetText("bot.arguments.too-few"))
		return
	}

	// *rand.Rand is not safe for concurrent use
	u.Lock()
	result := helpers.Uwuify(content, u.rng)
	u.Unlock()

	_, err := helpers.SendMessage(msg.ChannelID, result)
	helpers.RelaxMessage(err, msg.ChannelID, msg.ID)
}
