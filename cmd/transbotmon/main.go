package main

import (
	"flag"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/transbot.go/pkg/cli/sh"
	"github.com/robotalks/transbot.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"

	_ "github.com/robotalks/transbot.go/pkg/transbot/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/robo/"
	topic   = "#"
)

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, env ROBO_MQTT_URL.")
	flag.StringVar(&topic, "topic", topic, "Topic pattern under the prefix.")
}

func handle(topic string, payload []byte) {
	if strings.HasSuffix(topic, "/meta") {
		glog.Infof("%s: %s", topic, string(payload))
		return
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		glog.Warningf("%s: bad message: %v", topic, err)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		glog.Warningf("%s: decode error: (type_id=%x) %v", topic, typed.TypeID, err)
		return
	}
	glog.Infof("%s: [seq=%d] %s", topic, typed.Sequence, sh.FormatMsg(msg))
}

func main() {
	flag.Parse()

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exit(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exitf("connect %s: %v", mqttURL, token.Error())
	}
	defer q.Close()
	q.Sub(topic, handle)
	<-(chan struct{})(nil)
}
