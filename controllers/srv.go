// controllers/srv.go
package controllers

import (
	"Gin_postgres_redis_device_tracker/app"
	"Gin_postgres_redis_device_tracker/cache"
	"Gin_postgres_redis_device_tracker/db"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo  *db.Repo
	Cache *cache.ActiveFlagCache
	Cfg   app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:  db.NewRepo(a.DB),
		Cache: a.ActiveCache(),
		Cfg:   a.Config,
	}
}

// actorFrom 取 authmw 放进 Context 的 JWT sub，用于审计
func actorFrom(c *gin.Context) string {
	v, _ := c.Get("actor")
	actor, _ := v.(string)
	return actor
}
