package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New はアプリ共通のロガーを作る。
// prod はJSON、それ以外はテキスト出力。
func New(level string, goEnv string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, goEnv)
}

func NewWithOutput(out io.Writer, level string, goEnv string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if strings.EqualFold(goEnv, "prod") || strings.EqualFold(goEnv, "production") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lv, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)

	return l
}

// Discard はテスト用の何も出さないロガー。
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
