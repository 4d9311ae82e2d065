package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/transbot.go/pkg/l1"
)

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref = l1.ControllerRef{}
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf.Info.Ref = l1.ControllerRef{Type: "transbot", ID: "t1"}
	conf.MQTTBrokerURL, conf.WebsocketAddr = "", ""
	_, err = conf.NewEnv()
	require.Error(t, err)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/robo"
	conf.WebsocketAddr = "127.0.0.1:8090"
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, e.Registrar.Registrars, 2)
	require.Equal(t, []string{"mqtt://localhost:1883/robo", "ws://127.0.0.1:8090/robo"}, e.RegistryURLs)
}
