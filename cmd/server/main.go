package main

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/orchestrator"
	"github.com/takumi-dev/polifeed/server"
	"github.com/takumi-dev/polifeed/utils"
	"github.com/takumi-dev/polifeed/utils/dotenv"
	Flag "github.com/takumi-dev/polifeed/utils/flag"
	Logger "github.com/takumi-dev/polifeed/utils/log"
)

func main() {
	Flag.ParseFlags()
	Logger.InitLogger()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		panic(err)
	}
	utils.DatabaseSetupAndMigration(db)

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	// Run status recording is best effort: without Redis the server still
	// serves runs, it just cannot answer "what happened last".
	if statusStore, err := utils.GetRedisStatusStore(); err != nil {
		Logger.Log.Errorf("redis status store unavailable: %v", err)
	} else {
		reporter := orchestrator.NewReporter(statusStore, bus)
		go func() {
			if err := reporter.Run(context.Background()); err != nil {
				Logger.Log.Errorf("run reporter stopped: %v", err)
			}
		}()
	}

	orch := orchestrator.New(db, bus)

	// Default with the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	server.RegisterRoutes(router, orch, collector.NewFeedFetcher())

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
