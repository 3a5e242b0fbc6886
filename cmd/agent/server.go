package agent

import "github.com/spf13/cobra"

func initServerFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	s := defaultCfg.Server

	f.String("server.addr", s.Addr, "-> HTTP listening address for /metrics (HTTP监听地址)")
	f.Duration("server.read-timeout", s.ReadTimeout, "-> Read timeout (读取超时)")
	f.Duration("server.write-timeout", s.WriteTimeout, "-> Write timeout (写入超时)")
	f.Duration("server.idle-timeout", s.IdleTimeout, "-> Idle keep-alive timeout (空闲连接超时)")
}
