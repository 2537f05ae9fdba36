// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/Corphon/ScriptWeaverMCP/internal/services"
	"github.com/Corphon/ScriptWeaverMCP/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

const wsWriteTimeout = 10 * time.Second

// ProgressWebSocket 通过WebSocket推送进度事件
// 剧本生成、PDF导出和头像生成的阶段性消息都会出现在这里
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Errorf("WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	events := h.progress.Subscribe()
	defer h.progress.Unsubscribe(events)

	utils.GetLogger().Info("✅ 进度WebSocket客户端已连接", nil)

	// 读循环只负责发现客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeProgressEvent(conn, event); err != nil {
				utils.GetLogger().Infof("🔌 进度WebSocket客户端已断开: %v", err)
				return
			}

		case <-done:
			utils.GetLogger().Info("🔌 进度WebSocket客户端已断开", nil)
			return
		}
	}
}

func writeProgressEvent(conn *websocket.Conn, event services.ProgressEvent) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(event)
}
