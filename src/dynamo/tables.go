package dynamo

import "fmt"

const tablePrefix = "l4edemoapp-"

// TimeSeriesTable holds the prepared and live data of a user's asset.
func TimeSeriesTable(userUID, asset string) string {
	return fmt.Sprintf("%s%s-%s", tablePrefix, userUID, asset)
}

// ProjectTable holds data keyed by the project (uid-asset) name.
func ProjectTable(project string) string {
	return tablePrefix + project
}

func AnomaliesTable(project string) string {
	return fmt.Sprintf("%s%s-anomalies", tablePrefix, project)
}

func RawAnomaliesTable(project string) string {
	return fmt.Sprintf("%s%s-raw-anomalies", tablePrefix, project)
}

func DailyRateTable(project string) string {
	return fmt.Sprintf("%s%s-daily_rate", tablePrefix, project)
}

func SensorContributionTable(project string) string {
	return fmt.Sprintf("%s%s-sensor_contribution", tablePrefix, project)
}
