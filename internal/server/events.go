package server

import (
	"database/sql"
	"os"

	"github.com/faciam-dev/gridbi/internal/events"
	"github.com/faciam-dev/gridbi/internal/logger"
)

// initEvents initializes the global events dispatcher. The driver string
// picks the DLQ insert's placeholder style.
func initEvents(db *sql.DB, driver, tablePrefix string) {
	evtConf, err := events.LoadConfig(os.Getenv("BI_EVENTS_CONFIG"))
	if err != nil {
		logger.L.Error("load events configuration", "err", err)
		os.Exit(1)
	}
	var sinks []events.Sink
	if wh := events.NewWebhookSink(evtConf.Sinks.Webhook); wh != nil {
		sinks = append(sinks, wh)
	}
	if rs, err := events.NewRedisSink(evtConf.Sinks.Redis); err == nil && rs != nil {
		sinks = append(sinks, rs)
	} else if err != nil {
		logger.L.Error("redis sink", "err", err)
	}
	if ks, err := events.NewKafkaSink(evtConf.Sinks.Kafka); err == nil && ks != nil {
		sinks = append(sinks, ks)
	} else if err != nil {
		logger.L.Error("kafka sink", "err", err)
	}
	events.Default = events.NewDispatcher(evtConf, &events.SQLDLQ{DB: db, Driver: driver, TablePrefix: tablePrefix}, sinks...)
}
