package cmd

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PREETHAM1590/waste-app/core/model"
	"github.com/PREETHAM1590/waste-app/core/reward"
	"github.com/PREETHAM1590/waste-app/core/userstats"
)

var (
	scoreItemType   string
	scoreConfidence float64
	scoreIncorrect  bool
	scoreStreak     int
	scoreAccuracy   float64
	scoreDaily      float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a recycling scan without dispatching tokens",
	RunE:  scoreScan,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreItemType, "item", "plastic_bottle", "scanned item type")
	scoreCmd.Flags().Float64Var(&scoreConfidence, "confidence", 0.9, "classifier confidence in [0,1]")
	scoreCmd.Flags().BoolVar(&scoreIncorrect, "incorrect", false, "treat the scan as misclassified")
	scoreCmd.Flags().IntVar(&scoreStreak, "streak", 7, "current streak in days")
	scoreCmd.Flags().Float64Var(&scoreAccuracy, "accuracy", 85, "average accuracy percentage")
	scoreCmd.Flags().Float64Var(&scoreDaily, "daily", 3, "daily activity average")
	rootCmd.AddCommand(scoreCmd)
}

func scoreScan(cmd *cobra.Command, args []string) error {
	stats := userstats.DefaultStats()
	stats.CurrentStreak = scoreStreak
	stats.AverageAccuracy = scoreAccuracy
	stats.DailyAverage = scoreDaily

	scan := model.ScanActivity{
		UserID:     "local",
		ItemType:   scoreItemType,
		Confidence: scoreConfidence,
		IsCorrect:  !scoreIncorrect,
		Timestamp:  time.Now(),
	}

	calc := reward.Calculator{}
	res := calc.ScoreScan(scan, stats)
	seasonal := reward.SeasonalMultiplier(scan.Timestamp)

	out := struct {
		Tokens      int64              `json:"tokens"`
		Seasonal    float64            `json:"seasonal_multiplier"`
		Breakdown   map[string]int64   `json:"breakdown"`
		Multipliers map[string]float64 `json:"multipliers"`
	}{
		Tokens:      int64(math.Floor(float64(res.TotalTokens) * seasonal)),
		Seasonal:    seasonal,
		Breakdown:   res.Breakdown,
		Multipliers: res.Multipliers,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
