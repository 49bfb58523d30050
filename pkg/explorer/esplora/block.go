package esplora

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (e *esplora) getBlockHeight(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return -1, err
	}

	blockHeight, err := strconv.ParseInt(strings.TrimSpace(resp), 10, 64)
	if err != nil {
		return -1, err
	}
	return blockHeight, nil
}
