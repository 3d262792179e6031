package main

// Drives a ZooKeeper server with the request families the tap decodes, to
// exercise the whole pipeline against real traffic.

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samuel/go-zookeeper/zk"
	"go.uber.org/zap"
)

var (
	servers  = flag.String("servers", "127.0.0.1", "comma separated ZooKeeper servers")
	interval = flag.Duration("interval", time.Second, "time between load rounds")

	logger, _ = zap.NewDevelopment()
	contents  = []byte("hello")
)

func churn(conn *zk.Conn, node string) {
	l := logger.With(zap.String("node", node))

	if _, err := conn.Create(node, contents, 0 /* flags */, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		l.Warn("create failed", zap.Error(err))
	}
	if _, _, _, err := conn.GetW(node); err != nil {
		l.Warn("get with watch failed", zap.Error(err))
	}
	if _, _, _, err := conn.ChildrenW(node); err != nil {
		l.Warn("children with watch failed", zap.Error(err))
	}
	if _, err := conn.Set(node, contents, -1); err != nil {
		l.Warn("set failed", zap.Error(err))
	}
	if _, _, err := conn.Exists(node + "/missing"); err != nil {
		l.Warn("exists failed", zap.Error(err))
	}

	ephemeral := node + "/worker"
	if _, err := conn.Create(ephemeral, contents, zk.FlagEphemeral, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		l.Warn("ephemeral create failed", zap.Error(err))
	}
	ops := []interface{}{
		&zk.SetDataRequest{Path: node, Data: contents, Version: -1},
		&zk.CheckVersionRequest{Path: node, Version: -1},
	}
	if _, err := conn.Multi(ops...); err != nil {
		l.Warn("multi failed", zap.Error(err))
	}
	if err := conn.Delete(ephemeral, -1); err != nil && err != zk.ErrNoNode {
		l.Warn("delete failed", zap.Error(err))
	}
}

func updateNodes(stopchan chan int, tickerChan <-chan time.Time, conn *zk.Conn, nodes []string) {
	for {
		select {
		case <-tickerChan:
			for _, node := range nodes {
				churn(conn, node)
			}
		case <-stopchan:
			logger.Info("stopping node routine")
			return
		}
	}
}

func handleCtrlC(c chan os.Signal, quit chan int) {
	sig := <-c
	fmt.Println("\nsignal: ", sig)
	quit <- 1 // stop other routines
	os.Exit(0)
}

func main() {
	flag.Parse()

	quit := make(chan int)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	conn, _, err := zk.Connect(strings.Split(*servers, ","), time.Second)
	if err != nil {
		panic(err)
	}

	nodes := []string{
		"/foo",
		"/bar",
	}
	ticker := time.NewTicker(*interval).C

	go updateNodes(quit, ticker, conn, nodes)
	go handleCtrlC(c, quit)

	select {}
}
