package rest

import (
	"net/http"
	"sort"

	"github.com/emicklei/go-restful/v3"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/cache"
	"github.com/pretend-bot/pretend/helpers"
	"github.com/pretend-bot/pretend/models"
)

func NewRestServices() []*restful.WebService {
	services := make([]*restful.WebService, 0)

	service := new(restful.WebService)
	service.
		Path("/bot/guilds").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)
	service.Route(service.GET("").To(GetAllBotGuilds))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/guild").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{guild-id}").To(FindGuild))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/user").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{user-id}/uid").To(FindUserUID))
	service.Route(service.GET("/{user-id}/lastfm").To(FindUserLastFm))
	services = append(services, service)

	return services
}

func GetAllBotGuilds(request *restful.Request, response *restful.Response) {
	state := cache.GetSession().State
	state.RLock()
	returnGuilds := make([]models.Rest_Guild, 0, len(state.Guilds))
	for _, guild := range state.Guilds {
		returnGuilds = append(returnGuilds, models.Rest_Guild{
			ID:          guild.ID,
			Name:        guild.Name,
			Icon:        guild.Icon,
			MemberCount: guild.MemberCount,
		})
	}
	state.RUnlock()

	sort.Slice(returnGuilds, func(i, j int) bool { return returnGuilds[i].ID < returnGuilds[j].ID })

	response.WriteEntity(returnGuilds)
}

func FindGuild(request *restful.Request, response *restful.Response) {
	guildID := request.PathParameter("guild-id")

	guild, err := cache.GetSession().State.Guild(guildID)
	if err != nil || guild == nil {
		writeError(response, http.StatusNotFound, errors.New("Guild not found."))
		return
	}

	settings, err := helpers.GuildSettingsGetCached(guildID)
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}

	response.WriteEntity(models.Rest_Guild{
		ID:          guild.ID,
		Name:        guild.Name,
		Icon:        guild.Icon,
		MemberCount: guild.MemberCount,
		Prefix:      settings.Prefix,
	})
}

func FindUserUID(request *restful.Request, response *restful.Response) {
	userID := request.PathParameter("user-id")

	uid, found, err := helpers.GetUID(userID)
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(response, http.StatusNotFound, errors.New("UID not found."))
		return
	}

	response.WriteEntity(models.Rest_UID{
		UserID: userID,
		UID:    uid,
	})
}

func FindUserLastFm(request *restful.Request, response *restful.Response) {
	userID := request.PathParameter("user-id")

	username := helpers.GetLastFmUsername(userID)
	if username == "" {
		writeError(response, http.StatusNotFound, errors.New("Last.fm account not found."))
		return
	}

	response.WriteEntity(models.Rest_LastFm{
		UserID:         userID,
		LastFmUsername: username,
	})
}

func writeError(response *restful.Response, status int, err error) {
	if status >= http.StatusInternalServerError {
		cache.GetLogger().WithField("module", "rest").Error(err.Error())
	}
	response.WriteHeaderAndEntity(status, models.Rest_Error{Error: err.Error()})
}
