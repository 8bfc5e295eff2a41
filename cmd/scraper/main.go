// One-shot scrape run for cron and manual operation. Prints the structured
// run result to stdout and exits non-zero when nothing usable happened.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/takumi-dev/polifeed/orchestrator"
	"github.com/takumi-dev/polifeed/utils"
	"github.com/takumi-dev/polifeed/utils/dotenv"
	Flag "github.com/takumi-dev/polifeed/utils/flag"
	Logger "github.com/takumi-dev/polifeed/utils/log"
)

var runType = flag.String("type", "all", "run type: news, events, sns or all")

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

	orch := orchestrator.New(db, nil)
	result := orch.Run(context.Background(), orchestrator.ParseRunType(*runType))

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}
